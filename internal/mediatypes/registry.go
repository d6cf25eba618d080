package mediatypes

// rawSubtypes lists the image subtypes handled as camera raw files.
var rawSubtypes = map[string]bool{
	"x-adobe-dng":     true,
	"x-canon-cr2":     true,
	"x-canon-cr3":     true,
	"x-canon-crw":     true,
	"x-epson-erf":     true,
	"x-fujifilm-raf":  true,
	"x-kodak-kdc":     true,
	"x-minolta-mrw":   true,
	"x-nikon-nef":     true,
	"x-olympus-orf":   true,
	"x-panasonic-rw2": true,
	"x-pentax-pef":    true,
	"x-sigma-x3f":     true,
	"x-sony-arw":      true,
	"x-sony-sr2":      true,
}

// registry maps a MIME type to its subtype table. The "*" entry is the
// wildcard fallback for the type.
var registry = map[string]map[string]Kind{
	"image": {"*": KindPhoto},
	"video": {"*": KindVideo},
}

func init() {
	for sub := range rawSubtypes {
		registry["image"][sub] = KindRawPhoto
	}
}

// KindForMime resolves the handling variant for a full MIME type string
// (e.g. "image/x-nikon-nef"). Unknown subtypes fall back to the type's
// wildcard entry; unknown types return KindOther.
func KindForMime(mime string) Kind {
	typ, sub, ok := SplitMime(mime)
	if !ok {
		return KindOther
	}
	subs, ok := registry[typ]
	if !ok {
		return KindOther
	}
	if k, ok := subs[sub]; ok {
		return k
	}
	return subs["*"]
}
