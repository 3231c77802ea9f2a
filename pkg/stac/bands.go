package stac

import (
	"encoding/json"
	"slices"
)

// Band is a spectral band declared on one of an item's assets.
type Band struct {
	Name             string   `json:"name,omitempty"`
	CommonName       string   `json:"common_name,omitempty"`
	CenterWavelength *float64 `json:"center_wavelength,omitempty"`
	Asset            string   `json:"asset"`
}

// Label is the common name, or the band name when there is none.
func (b Band) Label() string {
	if b.CommonName != "" {
		return b.CommonName
	}
	return b.Name
}

type assetBands struct {
	EO     []Band `json:"eo:bands"`
	Raster []Band `json:"raster:bands"`
}

// decodeBands reads eo:bands from every asset, falling back to
// raster:bands for assets without them. Assets are visited in key order.
// An asset whose band list does not decode is ignored.
func decodeBands(body []byte) []Band {
	var doc struct {
		Assets map[string]json.RawMessage `json:"assets"`
	}
	if err := json.Unmarshal(body, &doc); err != nil || len(doc.Assets) == 0 {
		return nil
	}
	keys := make([]string, 0, len(doc.Assets))
	for k := range doc.Assets {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	var out []Band
	for _, k := range keys {
		var ab assetBands
		if err := json.Unmarshal(doc.Assets[k], &ab); err != nil {
			continue
		}
		bands := ab.EO
		if len(bands) == 0 {
			bands = ab.Raster
		}
		for _, b := range bands {
			b.Asset = k
			out = append(out, b)
		}
	}
	return out
}
