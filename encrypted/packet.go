package encrypted

import "encoding/binary"

const (
	// DataPacketTag is the first byte of every DataPacket.
	DataPacketTag byte = 0x1b
	// MaxDataPacketSize bounds the serialized DataPacket, tag and nonce suffix included.
	MaxDataPacketSize = 1400
	// MaxDataBodySize is the largest DataPayload body that still fits in a DataPacket.
	MaxDataBodySize = MaxDataPacketSize - dataPacketHeaderSize - Overhead - dataPayloadHeaderSize
)

const dataPacketHeaderSize = 1 + 2

/**************
 * DataPacket *
 **************/

// DataPacket is the wire form of an encrypted DataPayload.
// Only the low 16 bits of the nonce are carried, the session reconstructs the rest.
type DataPacket struct {
	NonceSuffix uint16
	Ciphertext  []byte
}

// NewDataPacket encodes payload and seals it with the full nonce and shared key.
func NewDataPacket(shared *SharedKey, nonce *Nonce, payload *DataPayload) (*DataPacket, error) {
	if len(payload.Body) > MaxDataBodySize {
		return nil, PacketTooLargeError{}
	}
	buf := allocBytes(0)
	defer freeBytes(buf)
	bs, err := payload.encode(buf)
	if err != nil {
		return nil, err
	}
	p := &DataPacket{
		NonceSuffix: nonce.Suffix(),
		Ciphertext:  Seal(nil, bs, nonce, shared),
	}
	if p.size() > MaxDataPacketSize {
		return nil, PacketTooLargeError{}
	}
	return p, nil
}

// Open authenticates and decrypts the ciphertext with the full nonce, then decodes the payload.
func (p *DataPacket) Open(shared *SharedKey, nonce *Nonce) (*DataPayload, error) {
	buf := allocBytes(0)
	defer freeBytes(buf)
	bs, ok := Open(buf, p.Ciphertext, nonce, shared)
	if !ok {
		return nil, DecryptionFailedError{}
	}
	payload := new(DataPayload)
	if err := payload.decode(bs); err != nil {
		return nil, err
	}
	return payload, nil
}

func (p *DataPacket) size() int {
	return dataPacketHeaderSize + len(p.Ciphertext)
}

func (p *DataPacket) encode(out []byte) ([]byte, error) {
	if p.size() > MaxDataPacketSize {
		return nil, PacketTooLargeError{}
	}
	out = append(out, DataPacketTag)
	out = binary.BigEndian.AppendUint16(out, p.NonceSuffix)
	out = append(out, p.Ciphertext...)
	return out, nil
}

func (p *DataPacket) decode(data []byte) error {
	switch {
	case len(data) > MaxDataPacketSize:
		return PacketTooLargeError{}
	case len(data) < dataPacketHeaderSize:
		return MalformedPacketError{}
	case data[0] != DataPacketTag:
		return MalformedPacketError{}
	}
	var tmp DataPacket
	tmp.NonceSuffix = binary.BigEndian.Uint16(data[1:3])
	tmp.Ciphertext = append(tmp.Ciphertext, data[dataPacketHeaderSize:]...)
	*p = tmp
	return nil
}

func (p *DataPacket) MarshalBinary() ([]byte, error) {
	return p.encode(make([]byte, 0, p.size()))
}

// MarshalBinaryTo appends the encoded packet to out.
func (p *DataPacket) MarshalBinaryTo(out []byte) ([]byte, error) {
	return p.encode(out)
}

func (p *DataPacket) UnmarshalBinary(data []byte) error {
	return p.decode(data)
}
