package sample

// DownsampleSamples reduces samples to at most maxPoints for display, reusing
// dst when it is large enough. The input is split into equal buckets and each
// bucket contributes its first sample, except that a bucket holding a sample
// without probe signal contributes that one, so short signal drops stay
// visible as gaps in the measured trace.
func DownsampleSamples(dst []Sample, samples []Sample, maxPoints int) []Sample {
	n := min(len(samples), max(maxPoints, 0))
	if cap(dst) < n {
		dst = make([]Sample, 0, n)
	}
	dst = dst[:0]

	if len(samples) <= maxPoints {
		return append(dst, samples...)
	}

	for i := 0; i < n; i++ {
		bucket := samples[i*len(samples)/n : (i+1)*len(samples)/n]
		dst = append(dst, pick(bucket))
	}

	return dst
}

func pick(bucket []Sample) Sample {
	if !bucket[0].HasSignal() {
		return bucket[0]
	}
	for _, s := range bucket[1:] {
		if !s.HasSignal() {
			return s
		}
	}
	return bucket[0]
}
