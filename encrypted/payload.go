package encrypted

import "encoding/binary"

const dataPayloadHeaderSize = 4 + 4

/***************
 * DataPayload *
 ***************/

// DataPayload is the plaintext carried inside a DataPacket.
type DataPayload struct {
	WindowBase uint32 // one past the highest sequence number the sender has fully processed
	Sequence   uint32 // used by the receiver to detect loss and duplicates
	Body       []byte
}

func (p *DataPayload) size() int {
	return dataPayloadHeaderSize + len(p.Body)
}

func (p *DataPayload) encode(out []byte) ([]byte, error) {
	out = binary.BigEndian.AppendUint32(out, p.WindowBase)
	out = binary.BigEndian.AppendUint32(out, p.Sequence)
	out = append(out, p.Body...)
	return out, nil
}

func (p *DataPayload) decode(data []byte) error {
	if len(data) < dataPayloadHeaderSize {
		return TruncatedPayloadError{}
	}
	var tmp DataPayload
	tmp.WindowBase = binary.BigEndian.Uint32(data[0:4])
	tmp.Sequence = binary.BigEndian.Uint32(data[4:8])
	tmp.Body = append(tmp.Body, data[dataPayloadHeaderSize:]...)
	*p = tmp
	return nil
}

func (p *DataPayload) MarshalBinary() ([]byte, error) {
	return p.encode(make([]byte, 0, p.size()))
}

func (p *DataPayload) UnmarshalBinary(data []byte) error {
	return p.decode(data)
}
