package chunker

// Chunk is a contiguous slice of a document's text. Offsets are rune
// positions into the original text, with End exclusive.
type Chunk struct {
	ID        int    `json:"id"`
	Text      string `json:"text"`
	CharCount int    `json:"char_count"`
	Start     int    `json:"start"`
	End       int    `json:"end"`
}

const (
	// DefaultTargetSize is the target chunk size in characters
	DefaultTargetSize = 30000

	// DefaultSearchWindow is the radius around the target position searched
	// for sentence boundaries
	DefaultSearchWindow = 500

	// whitespaceRadius bounds the whitespace fallback search
	whitespaceRadius = 1000
)

// Chunker splits long texts into bounded segments at natural language
// boundaries. It always returns an exhaustive, contiguous partition of the
// input; under adversarial input the split points degrade but never lose or
// duplicate characters.
type Chunker struct {
	targetSize   int
	searchWindow int
}

// New creates a chunker. Non-positive parameters fall back to defaults.
func New(targetSize, searchWindow int) *Chunker {
	if targetSize <= 0 {
		targetSize = DefaultTargetSize
	}
	if searchWindow <= 0 {
		searchWindow = DefaultSearchWindow
	}
	return &Chunker{targetSize: targetSize, searchWindow: searchWindow}
}

// Split partitions text into ordered chunks. The ranges [Start, End) cover
// the text exactly and contiguously; IDs are sequential from 0.
func (c *Chunker) Split(text string) []Chunk {
	runes := []rune(text)
	length := len(runes)

	if length <= c.targetSize {
		return []Chunk{{
			ID:        0,
			Text:      text,
			CharCount: length,
			Start:     0,
			End:       length,
		}}
	}

	var chunks []Chunk
	pos := 0
	id := 0

	for pos < length {
		targetEnd := pos + c.targetSize

		// Remaining tail fits: take it verbatim, even if small.
		if targetEnd >= length {
			chunks = append(chunks, makeChunk(id, runes, pos, length))
			break
		}

		split := c.findSplitPoint(runes, targetEnd)
		if split <= pos {
			// Guard against a zero-width chunk when the fallback search
			// lands behind the current position.
			split = targetEnd
		}

		chunks = append(chunks, makeChunk(id, runes, pos, split))
		pos = split
		id++
	}

	return chunks
}

func makeChunk(id int, runes []rune, start, end int) Chunk {
	return Chunk{
		ID:        id,
		Text:      string(runes[start:end]),
		CharCount: end - start,
		Start:     start,
		End:       end,
	}
}

// findSplitPoint locates the sentence boundary closest to target within the
// search window, falling back to whitespace and finally to the target
// position itself.
func (c *Chunker) findSplitPoint(runes []rune, target int) int {
	length := len(runes)

	searchStart := target - c.searchWindow
	if searchStart < 0 {
		searchStart = 0
	}
	searchEnd := target + c.searchWindow
	if searchEnd > length {
		searchEnd = length
	}

	best := -1
	bestDist := -1
	for i := searchStart; i < searchEnd-1; i++ {
		if !isSentenceEnd(runes[i]) || !isSpace(runes[i+1]) {
			continue
		}
		// Boundary ends after the terminator and its trailing whitespace run.
		end := i + 1
		for end < searchEnd && isSpace(runes[end]) {
			end++
		}
		dist := end - target
		if dist < 0 {
			dist = -dist
		}
		if best == -1 || dist < bestDist {
			best = end
			bestDist = dist
		}
	}
	if best != -1 {
		return best
	}

	return c.findNearestWhitespace(runes, target)
}

// findNearestWhitespace searches forward, then backward, for whitespace
// within a bounded radius of the target position.
func (c *Chunker) findNearestWhitespace(runes []rune, target int) int {
	length := len(runes)

	forwardEnd := target + whitespaceRadius
	if forwardEnd > length {
		forwardEnd = length
	}
	for i := target; i < forwardEnd; i++ {
		if isSpace(runes[i]) {
			return i + 1
		}
	}

	backwardEnd := target - whitespaceRadius
	if backwardEnd < 0 {
		backwardEnd = 0
	}
	for i := target; i > backwardEnd; i-- {
		if isSpace(runes[i]) {
			return i + 1
		}
	}

	// Last resort: accept a mid-word cut.
	return target
}

func isSentenceEnd(r rune) bool {
	return r == '.' || r == '!' || r == '?'
}

func isSpace(r rune) bool {
	return r == ' ' || r == '\t' || r == '\n' || r == '\r' || r == '\v' || r == '\f'
}
