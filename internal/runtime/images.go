package runtime

import (
	"context"

	"github.com/cfilipov/containerstack/internal/reference"
)

// listImages runs `container image list --format json` and parses it,
// without computing usage counts.
func (a *Adapter) listImages(ctx context.Context) ([]ImageRecord, error) {
	res, err := a.run(ctx, "image list", "image", "list", "--format", "json")
	if err != nil {
		return nil, err
	}
	if res.ExitCode != 0 {
		return nil, &RuntimeError{Op: "image list", Stderr: res.Stderr}
	}
	return ParseImageList([]byte(res.Stdout)), nil
}

// GetImageList returns every locally known image, with InUseCount set to
// the number of observed containers whose image matches it — by exact
// digest, or by any normalised-reference candidate.
func (a *Adapter) GetImageList(ctx context.Context) ([]ImageRecord, error) {
	images, err := a.listImages(ctx)
	if err != nil {
		return nil, err
	}
	containers, err := a.listAll(ctx)
	if err != nil {
		return nil, err
	}

	for i := range images {
		for _, c := range containers {
			if c.Image == "" {
				continue
			}
			if (images[i].Digest != "" && c.Image == images[i].Digest) ||
				reference.Equal(images[i].Reference, c.Image) {
				images[i].InUseCount++
			}
		}
	}
	return images, nil
}

// DeleteImage removes an image by reference. It refuses to delete an image
// a container is currently using.
func (a *Adapter) DeleteImage(ctx context.Context, imageRef string) error {
	images, err := a.GetImageList(ctx)
	if err != nil {
		return err
	}
	for _, img := range images {
		if img.Digest == imageRef || reference.Equal(img.Reference, imageRef) {
			if img.InUseCount > 0 {
				return &RuntimeError{Op: "delete image " + imageRef, Stderr: "image is in use by a container"}
			}
			break
		}
	}

	res, err := a.run(ctx, "image delete "+imageRef, "image", "delete", imageRef)
	if err != nil {
		return err
	}
	if res.ExitCode != 0 {
		return &RuntimeError{Op: "delete image " + imageRef, Stderr: res.Stderr}
	}
	return nil
}

// GetNetworkList reports every runtime-visible network name.
func (a *Adapter) GetNetworkList(ctx context.Context) ([]string, error) {
	res, err := a.run(ctx, "network list", "network", "list", "--format", "json")
	if err != nil {
		return nil, err
	}
	if res.ExitCode != 0 {
		return nil, &RuntimeError{Op: "network list", Stderr: res.Stderr}
	}
	return ParseNetworkList([]byte(res.Stdout)), nil
}
