package analytics

import (
	"github.com/yigit/schoolconsole/internal/app/models"
	"github.com/yigit/schoolconsole/internal/app/models/dto"
)

// Bucket is a capacity utilization category
type Bucket string

const (
	BucketAvailable  Bucket = "available"
	BucketNearFull   Bucket = "nearFull"
	BucketAlmostFull Bucket = "almostFull"
	BucketFull       Bucket = "full"
)

// Utilization thresholds. Each lower bound is inclusive.
const (
	NearFullThreshold   = 0.70
	AlmostFullThreshold = 0.90
	FullThreshold       = 1.00
)

// ClassifyRatio buckets a utilization ratio
func ClassifyRatio(u float64) Bucket {
	switch {
	case u >= FullThreshold:
		return BucketFull
	case u >= AlmostFullThreshold:
		return BucketAlmostFull
	case u >= NearFullThreshold:
		return BucketNearFull
	default:
		return BucketAvailable
	}
}

// Classify buckets a class by enrolled/capacity. An unusable capacity counts as the default.
func Classify(enrolled int64, capacity int) Bucket {
	if enrolled < 0 {
		enrolled = 0
	}
	return ClassifyRatio(float64(enrolled) / float64(models.CoerceCapacity(capacity)))
}

// Categorize counts classes per bucket
func Categorize(classes []dto.ClassUtilization) dto.CapacityCategories {
	var out dto.CapacityCategories
	for _, c := range classes {
		switch Classify(c.EnrolledCount, int(c.Capacity)) {
		case BucketFull:
			out.Full++
		case BucketAlmostFull:
			out.AlmostFull++
		case BucketNearFull:
			out.NearFull++
		default:
			out.Available++
		}
	}
	return out
}
