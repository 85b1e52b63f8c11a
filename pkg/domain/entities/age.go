package entities

// AgeBucket groups batches by hours since proving started
type AgeBucket int

const (
	Age0To24 AgeBucket = iota
	Age24To48
	Age48To72
	Age72To96
	Age96Plus
)

// AgeBuckets lists the buckets in ascending age order
var AgeBuckets = []AgeBucket{Age0To24, Age24To48, Age48To72, Age72To96, Age96Plus}

// BucketFor maps elapsed hours to an age bucket
func BucketFor(hours float64) AgeBucket {
	switch {
	case hours < 24:
		return Age0To24
	case hours < 48:
		return Age24To48
	case hours < 72:
		return Age48To72
	case hours < 96:
		return Age72To96
	default:
		return Age96Plus
	}
}

// String returns the display label of the bucket
func (a AgeBucket) String() string {
	switch a {
	case Age0To24:
		return "0-24h"
	case Age24To48:
		return "24-48h"
	case Age48To72:
		return "48-72h"
	case Age72To96:
		return "72-96h"
	case Age96Plus:
		return "96h+"
	default:
		return "Unknown"
	}
}

// MarshalText encodes the bucket by label so it can key JSON maps
func (a AgeBucket) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// Badge is the informational freshness classification of a proving or ready batch
type Badge string

const (
	BadgeProving Badge = "Proving"
	BadgeReady   Badge = "Ready"
	BadgeOld     Badge = "Old"
	BadgeExpired Badge = "Expired"
)

// BadgeFor classifies elapsed proving hours. It never alters a batch's stage.
func BadgeFor(hours float64, p Policy) Badge {
	switch {
	case hours >= p.ExpireHours:
		return BadgeExpired
	case hours >= p.WarnHours:
		return BadgeOld
	case hours >= p.MinProveHours:
		return BadgeReady
	default:
		return BadgeProving
	}
}
