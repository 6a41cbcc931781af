package dataset

// Record is one audio clip with its transcription. Its fields are fixed at
// construction; in particular the split is never reassigned.
type Record struct {
	id            string
	transcription string
	path          string
	split         Split
}

// NewRecord builds a record. id is the payload file name without extension
// and is only used as hashing input. path is an opaque payload reference.
func NewRecord(id, transcription, path string, split Split) Record {
	return Record{id: id, transcription: transcription, path: path, split: split}
}

func (record Record) ID() string            { return record.id }
func (record Record) Transcription() string { return record.transcription }
func (record Record) Path() string          { return record.path }
func (record Record) Split() Split          { return record.split }
