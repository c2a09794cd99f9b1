package mel

import "github.com/alexanderrusich/whisper-go/pkg/config"

// Segment is a dense [80 x 3000] Mel slice, always exactly
// config.FramesPerSegment frames wide (spec §3, §4.1 "Segmentation").
type Segment struct {
	Data []float32 // flat row-major, config.NMels x config.FramesPerSegment
}

// Split slices a flat row-major [config.NMels x frames] Mel matrix into
// contiguous config.FramesPerSegment-frame segments. The final segment, if
// short, is right-padded with zeros.
func Split(melFlat []float32, frames int) []Segment {
	if frames == 0 {
		return nil
	}

	n := config.FramesPerSegment
	numSegments := (frames + n - 1) / n
	segments := make([]Segment, numSegments)

	for s := 0; s < numSegments; s++ {
		start := s * n
		end := start + n
		if end > frames {
			end = frames
		}
		width := end - start

		data := make([]float32, config.NMels*n)
		for row := 0; row < config.NMels; row++ {
			src := melFlat[row*frames+start : row*frames+end]
			copy(data[row*n:row*n+width], src)
			// Remaining frames in the row stay zero (right-padding).
		}
		segments[s] = Segment{Data: data}
	}

	return segments
}
