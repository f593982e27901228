package field

import "fmt"

// Sum adds a slice of elements, returning zero for an empty slice.
func Sum(f Field, els []Element) Element {
	acc := f.NewElement()
	for _, e := range els {
		acc = acc.Add(e)
	}
	return acc
}

// VectorToBytes encodes a slice of elements as their concatenated
// fixed-width encodings.
func VectorToBytes(els []Element) []byte {
	if len(els) == 0 {
		return nil
	}
	bs := els[0].Field().ByteSize()
	out := make([]byte, 0, len(els)*bs)
	for _, e := range els {
		out = append(out, e.Bytes()...)
	}
	return out
}

// VectorFromBytes decodes n elements from the concatenated encoding in b.
func VectorFromBytes(f Field, b []byte, n int) ([]Element, error) {
	bs := f.ByteSize()
	if len(b) < n*bs {
		return nil, fmt.Errorf("%w: got %d bytes, need %d", ErrShortBuffer, len(b), n*bs)
	}
	out := make([]Element, n)
	for i := 0; i < n; i++ {
		e, err := f.FromBytes(b[i*bs : (i+1)*bs])
		if err != nil {
			return nil, err
		}
		out[i] = e
	}
	return out, nil
}
