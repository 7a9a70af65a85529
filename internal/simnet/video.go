package simnet

// Video is a catalog entry, immutable once added to a VideoServer (spec
// §3).
type Video struct {
	VideoID     string
	DurationS   float64
	SizeKb      float64
	BitrateKbS  float64
	Title       string
	Description string
}
