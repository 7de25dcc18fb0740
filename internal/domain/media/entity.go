package media

// Payload is one evidence image held in memory for a single pipeline run:
// raw bytes plus MIME type. It is never persisted.
type Payload struct {
	Bytes []byte
	MIME  string
}
