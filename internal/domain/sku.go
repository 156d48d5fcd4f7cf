package domain

import (
	"fmt"
	"strings"
)

type SkuType string

const (
	SkuTypeInApp        SkuType = "inapp"
	SkuTypeSubs         SkuType = "subs"
	SkuTypeFirstParty   SkuType = "first_party"
	SkuTypeAudioBook    SkuType = "audio_book"
	SkuTypeBook         SkuType = "book"
	SkuTypeBookSubs     SkuType = "book_subs"
	SkuTypeNestSubs     SkuType = "nest_subs"
	SkuTypePlayPassSubs SkuType = "play_pass_subs"
	SkuTypeStadiaItem   SkuType = "stadia_item"
	SkuTypeStadiaSubs   SkuType = "stadia_subs"
	SkuTypeMovie        SkuType = "movie"
	SkuTypeTVShow       SkuType = "tv_show"
	SkuTypeTVEpisode    SkuType = "tv_episode"
	SkuTypeTVSeason     SkuType = "tv_season"
)

// API version window accepted by the billing surface.
const (
	MinAPIVersion = 3
	MaxAPIVersion = 17

	// Extra params on isBillingSupported require at least this version.
	ExtraParamsMinAPIVersion = 7
)

var supportedSkuTypes = map[SkuType]struct{}{
	SkuTypeInApp:        {},
	SkuTypeSubs:         {},
	SkuTypeFirstParty:   {},
	SkuTypeAudioBook:    {},
	SkuTypeBook:         {},
	SkuTypeBookSubs:     {},
	SkuTypeNestSubs:     {},
	SkuTypePlayPassSubs: {},
	SkuTypeStadiaItem:   {},
	SkuTypeStadiaSubs:   {},
	SkuTypeMovie:        {},
	SkuTypeTVShow:       {},
	SkuTypeTVEpisode:    {},
	SkuTypeTVSeason:     {},
}

func (t SkuType) Supported() bool {
	_, ok := supportedSkuTypes[t]
	return ok
}

// BackendDocType maps a SKU type to the backend's numeric document type.
func (t SkuType) BackendDocType() int {
	switch t {
	case SkuTypeSubs, SkuTypeFirstParty:
		return 15
	default:
		return 11
	}
}

// DocumentID is the composite SKU identifier, kind:package:sku.
type DocumentID struct {
	Kind        string
	PackageName string
	SKU         string
}

func ComposeDocumentID(skuType SkuType, pkgName, sku string) DocumentID {
	return DocumentID{Kind: string(skuType), PackageName: pkgName, SKU: sku}
}

// ParseDocumentID splits a composite document id. SKUs may themselves
// contain colons, so everything past the second separator belongs to the
// SKU.
func ParseDocumentID(raw string) (DocumentID, error) {
	parts := strings.SplitN(raw, ":", 3)
	if len(parts) < 3 {
		return DocumentID{}, fmt.Errorf("malformed document id %q", raw)
	}
	return DocumentID{Kind: parts[0], PackageName: parts[1], SKU: parts[2]}, nil
}

func (d DocumentID) String() string {
	return d.Kind + ":" + d.PackageName + ":" + d.SKU
}
