package capture

import "fmt"

// MapResolver resolves app labels from a fixed table. Lookups for unknown
// packages fail and the builder falls back to the raw package identifier.
type MapResolver map[string]string

func (r MapResolver) AppName(packageName string) (string, error) {
	if name, ok := r[packageName]; ok && name != "" {
		return name, nil
	}
	return "", fmt.Errorf("no label for package %q", packageName)
}

// DefaultLabels covers the apps most commonly forwarded. The bridge can ship
// a richer table; this keeps payloads readable out of the box.
func DefaultLabels() MapResolver {
	return MapResolver{
		"com.gojek.app":                  "Gojek",
		"com.grabtaxi.passenger":         "Grab",
		"ovo.id":                         "OVO",
		"id.dana":                        "DANA",
		"com.bca":                        "BCA Mobile",
		"id.co.bri.brimo":                "BRImo",
		"com.bankmandiri.livin":          "Livin' by Mandiri",
		"com.shopee.id":                  "Shopee",
		"com.tokopedia.tkpd":             "Tokopedia",
		"com.whatsapp":                   "WhatsApp",
		"com.google.android.apps.nbu.paisa.user": "Google Pay",
	}
}
