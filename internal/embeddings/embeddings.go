// Package embeddings reads pre-trained word2vec vectors and answers
// similarity and analogy queries over them.
package embeddings

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/mat"
)

// Embeddings holds word vectors as rows of a dense matrix.
type Embeddings struct {
	words  []string
	index  map[string]int
	matrix *mat.Dense
	dim    int
}

// New returns empty Embeddings of the given dimensionality.
func New(dim int) *Embeddings {
	return &Embeddings{index: make(map[string]int), dim: dim}
}

// Len returns the number of words.
func (e *Embeddings) Len() int { return len(e.words) }

// Dim returns the vector dimensionality.
func (e *Embeddings) Dim() int { return e.dim }

// Words returns the word table in row order.
func (e *Embeddings) Words() []string { return e.words }

// Vector returns the row vector for word.
func (e *Embeddings) Vector(word string) ([]float64, bool) {
	row, ok := e.index[word]
	if !ok {
		return nil, false
	}
	return e.matrix.RawRowView(row), true
}

// Put adds or replaces a word vector.
func (e *Embeddings) Put(word string, vec []float64) error {
	if len(vec) != e.dim {
		return fmt.Errorf("vector for %q has length %d, want %d", word, len(vec), e.dim)
	}
	if row, ok := e.index[word]; ok {
		e.matrix.SetRow(row, vec)
		return nil
	}
	e.index[word] = len(e.words)
	e.words = append(e.words, word)
	if e.matrix == nil {
		e.matrix = mat.NewDense(1, e.dim, append([]float64(nil), vec...))
		return nil
	}
	e.matrix = e.matrix.Grow(1, 0).(*mat.Dense)
	e.matrix.SetRow(len(e.words)-1, vec)
	return nil
}

// ReadText reads the word2vec textual format: a "count dim" header line
// followed by one "word v0 v1 ..." line per word. When normalize is set,
// every vector is scaled to unit L2 norm.
func ReadText(r io.Reader, normalize bool) (*Embeddings, error) {
	br := bufio.NewReader(r)
	nWords, dim, err := readHeader(br)
	if err != nil {
		return nil, err
	}

	e := &Embeddings{
		words:  make([]string, 0, nWords),
		index:  make(map[string]int, nWords),
		matrix: mat.NewDense(nWords, dim, nil),
		dim:    dim,
	}
	scanner := bufio.NewScanner(br)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	row := 0
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if row >= nWords {
			return nil, fmt.Errorf("more vectors than the declared %d", nWords)
		}
		fields := strings.Fields(line)
		if len(fields) != dim+1 {
			return nil, fmt.Errorf("vector line for %q has %d values, want %d", fields[0], len(fields)-1, dim)
		}
		vec := make([]float64, dim)
		for i, f := range fields[1:] {
			vec[i], err = strconv.ParseFloat(f, 64)
			if err != nil {
				return nil, fmt.Errorf("invalid vector value for %q: %w", fields[0], err)
			}
		}
		if normalize {
			normalizeVec(vec)
		}
		e.index[fields[0]] = row
		e.words = append(e.words, fields[0])
		e.matrix.SetRow(row, vec)
		row++
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if row != nWords {
		return nil, fmt.Errorf("read %d vectors, header declared %d", row, nWords)
	}
	return e, nil
}

// ReadBinary reads the word2vec binary format: a textual header, then per
// word its token, a space, and dim little-endian float32 values.
func ReadBinary(r io.Reader, normalize bool) (*Embeddings, error) {
	br := bufio.NewReader(r)
	nWords, dim, err := readHeader(br)
	if err != nil {
		return nil, err
	}

	e := &Embeddings{
		words:  make([]string, 0, nWords),
		index:  make(map[string]int, nWords),
		matrix: mat.NewDense(nWords, dim, nil),
		dim:    dim,
	}
	raw := make([]float32, dim)
	for row := 0; row < nWords; row++ {
		word, err := br.ReadString(' ')
		if err != nil {
			return nil, fmt.Errorf("cannot read word %d: %w", row, err)
		}
		word = strings.TrimSpace(word)
		if err := binary.Read(br, binary.LittleEndian, raw); err != nil {
			return nil, fmt.Errorf("cannot read vector for %q: %w", word, err)
		}
		vec := make([]float64, dim)
		for i, v := range raw {
			vec[i] = float64(v)
		}
		if normalize {
			normalizeVec(vec)
		}
		e.index[word] = row
		e.words = append(e.words, word)
		e.matrix.SetRow(row, vec)
	}
	return e, nil
}

// WriteText writes the textual word2vec format.
func (e *Embeddings) WriteText(w io.Writer) error {
	bw := bufio.NewWriter(w)
	if _, err := fmt.Fprintf(bw, "%d %d\n", e.Len(), e.dim); err != nil {
		return err
	}
	for row, word := range e.words {
		if _, err := bw.WriteString(word); err != nil {
			return err
		}
		vec := e.matrix.RawRowView(row)
		for _, v := range vec {
			if _, err := fmt.Fprintf(bw, " %g", v); err != nil {
				return err
			}
		}
		if err := bw.WriteByte('\n'); err != nil {
			return err
		}
	}
	return bw.Flush()
}

func readHeader(br *bufio.Reader) (nWords, dim int, err error) {
	line, err := br.ReadString('\n')
	if err != nil {
		return 0, 0, fmt.Errorf("cannot read embeddings header: %w", err)
	}
	if _, err := fmt.Sscanf(strings.TrimSpace(line), "%d %d", &nWords, &dim); err != nil {
		return 0, 0, fmt.Errorf("invalid embeddings header %q: %w", strings.TrimSpace(line), err)
	}
	if nWords <= 0 || dim <= 0 {
		return 0, 0, fmt.Errorf("invalid embeddings header: %d words, %d dims", nWords, dim)
	}
	return nWords, dim, nil
}

func normalizeVec(vec []float64) {
	var sum float64
	for _, v := range vec {
		sum += v * v
	}
	n := math.Sqrt(sum)
	if n == 0 {
		return
	}
	for i := range vec {
		vec[i] /= n
	}
}
