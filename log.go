package retention

import "net/url"

const (
	LogKindKey = "kind"
	LogMaskVal = "xxxxxx"
)

const (
	AppLogKind    = "app"
	HTTPLogKind   = "http"
	WorkerLogKind = "worker"
)

// Mask replaces every value under key in vals with LogMaskVal.
func Mask(vals url.Values, key string) {
	if _, ok := vals[key]; !ok {
		return
	}

	vals.Set(key, LogMaskVal)
}
