package serde

// BinarySerde encodes activity inputs and outcomes for the wire. The
// worker core never assumes a particular encoding; JSON and MessagePack
// implementations are provided.
type BinarySerde interface {
	SerializeBinary(value any) ([]byte, error)
	DeserializeBinary(data []byte, valuePtr any) error
}
