package model

// Bucket groups popularity scores for coloring.
type Bucket int

const (
	// BucketUnknown is used when the popularity is not known.
	BucketUnknown Bucket = iota

	// BucketLow covers scores below 30.
	BucketLow

	// BucketMedium covers scores from 30 to 59.
	BucketMedium

	// BucketHigh covers scores of 60 and above.
	BucketHigh
)

// Popularity bucket boundaries.
const (
	PopularityMediumFrom = 30
	PopularityHighFrom   = 60
)

// PopularityBucket maps a popularity score to its bucket.
func PopularityBucket(p *int) Bucket {
	switch {
	case p == nil:
		return BucketUnknown
	case *p >= PopularityHighFrom:
		return BucketHigh
	case *p >= PopularityMediumFrom:
		return BucketMedium
	default:
		return BucketLow
	}
}

// String returns the bucket name.
func (b Bucket) String() string {
	switch b {
	case BucketLow:
		return "low"
	case BucketMedium:
		return "medium"
	case BucketHigh:
		return "high"
	default:
		return "unknown"
	}
}
