package media

import (
	"context"

	"media-scanner/internal/logging"
	"media-scanner/internal/mediatypes"
)

// photoSpecs are rendered by downscaling one decoded image, so they run
// largest to smallest.
var photoSpecs = []ThumbSpec{
	{Size: 1024, Quality: 85, Square: false, Ext: "jpg"},
	{Size: 150, Quality: 70, Square: true, Ext: "jpg"},
}

type photo struct {
	obj  *Object
	list []ThumbSpec
}

func newPhoto(o *Object) *photo {
	return &photo{obj: o, list: photoSpecs}
}

func (p *photo) kind() mediatypes.Kind { return mediatypes.KindPhoto }

func (p *photo) specs() []ThumbSpec { return p.list }

func (p *photo) generate(ctx context.Context, cacheRoot string) error {
	logging.Event("thumbing", "%s", p.obj.Name())
	return renderPhotoSet(ctx, p.obj, p.obj.Path(), cacheRoot, p.list)
}
