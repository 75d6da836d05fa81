package hash

import (
	"bytes"
	"encoding/binary"
	"io"
)

// WriterToWithDomain is implemented by values which can be absorbed into a digest,
// such as points, identities and signatures.
//
// Two implementors writing the same bytes are told apart by their domain.
type WriterToWithDomain interface {
	io.WriterTo

	// Domain returns a context string, unique for each implementor
	Domain() string
}

// writeWithDomain writes len(domain) ‖ domain ‖ len(data) ‖ data, with 32 bit big-endian lengths.
func writeWithDomain(w io.Writer, object WriterToWithDomain) error {
	var data bytes.Buffer
	if _, err := object.WriteTo(&data); err != nil {
		return err
	}
	if err := writeFrame(w, []byte(object.Domain())); err != nil {
		return err
	}
	return writeFrame(w, data.Bytes())
}

func writeFrame(w io.Writer, b []byte) error {
	var length [4]byte
	binary.BigEndian.PutUint32(length[:], uint32(len(b)))
	if _, err := w.Write(length[:]); err != nil {
		return err
	}
	_, err := w.Write(b)
	return err
}

// BytesWithDomain annotates raw bytes with a domain, so that they can be passed to WriteAny.
type BytesWithDomain struct {
	TheDomain string
	Bytes     []byte
}

// WriteTo implements io.WriterTo.
func (b BytesWithDomain) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(b.Bytes)
	return int64(n), err
}

// Domain implements WriterToWithDomain.
func (b BytesWithDomain) Domain() string {
	return b.TheDomain
}
