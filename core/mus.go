package core

import (
	"time"

	"github.com/mus-format/mus-go"
	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/varint"
)

// Hand-written MUS serializers for the records persisted in the key-value
// store. Timestamps are stored as Unix microseconds.

// IDMUS serializes IDs.
var IDMUS = idMUS{}

type idMUS struct{}

var _ mus.Serializer[ID] = IDMUS

func (idMUS) Marshal(id ID, bs []byte) int {
	return varint.Uint64.Marshal(uint64(id), bs)
}

func (idMUS) Unmarshal(bs []byte) (ID, int, error) {
	v, n, err := varint.Uint64.Unmarshal(bs)
	return ID(v), n, err
}

func (idMUS) Size(id ID) int {
	return varint.Uint64.Size(uint64(id))
}

func (idMUS) Skip(bs []byte) (int, error) {
	return varint.Uint64.Skip(bs)
}

// DocumentMUS serializes Documents.
var DocumentMUS = documentMUS{}

type documentMUS struct{}

var _ mus.Serializer[Document] = DocumentMUS

func (documentMUS) Marshal(d Document, bs []byte) (n int) {
	n = IDMUS.Marshal(d.Id, bs)
	n += ord.String.Marshal(d.Dataset, bs[n:])
	n += ord.String.Marshal(d.URL, bs[n:])
	n += ord.String.Marshal(d.RawLocation, bs[n:])
	n += ord.String.Marshal(d.ContentHash, bs[n:])
	n += varint.Int.Marshal(int(d.Status), bs[n:])
	n += varint.Int.Marshal(len(d.Vectors), bs[n:])
	for _, id := range d.Vectors {
		n += IDMUS.Marshal(id, bs[n:])
	}
	n += varint.Int64.Marshal(d.UpdatedAt.UnixMicro(), bs[n:])
	return n
}

func (documentMUS) Unmarshal(bs []byte) (d Document, n int, err error) {
	var n1 int
	if d.Id, n, err = IDMUS.Unmarshal(bs); err != nil {
		return
	}
	if d.Dataset, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return d, n + n1, err
	}
	n += n1
	if d.URL, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return d, n + n1, err
	}
	n += n1
	if d.RawLocation, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return d, n + n1, err
	}
	n += n1
	if d.ContentHash, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return d, n + n1, err
	}
	n += n1
	var status int
	if status, n1, err = varint.Int.Unmarshal(bs[n:]); err != nil {
		return d, n + n1, err
	}
	n += n1
	d.Status = DocumentStatus(status)
	var count int
	if count, n1, err = varint.Int.Unmarshal(bs[n:]); err != nil {
		return d, n + n1, err
	}
	n += n1
	if count > 0 {
		d.Vectors = make([]ID, count)
		for i := 0; i < count; i++ {
			if d.Vectors[i], n1, err = IDMUS.Unmarshal(bs[n:]); err != nil {
				return d, n + n1, err
			}
			n += n1
		}
	}
	var micros int64
	if micros, n1, err = varint.Int64.Unmarshal(bs[n:]); err != nil {
		return d, n + n1, err
	}
	n += n1
	d.UpdatedAt = time.UnixMicro(micros).UTC()
	return d, n, nil
}

func (documentMUS) Size(d Document) (size int) {
	size = IDMUS.Size(d.Id)
	size += ord.String.Size(d.Dataset)
	size += ord.String.Size(d.URL)
	size += ord.String.Size(d.RawLocation)
	size += ord.String.Size(d.ContentHash)
	size += varint.Int.Size(int(d.Status))
	size += varint.Int.Size(len(d.Vectors))
	for _, id := range d.Vectors {
		size += IDMUS.Size(id)
	}
	size += varint.Int64.Size(d.UpdatedAt.UnixMicro())
	return size
}

func (documentMUS) Skip(bs []byte) (n int, err error) {
	_, n, err = DocumentMUS.Unmarshal(bs)
	return n, err
}

// QueryCheckMUS serializes QueryChecks.
var QueryCheckMUS = queryCheckMUS{}

type queryCheckMUS struct{}

var _ mus.Serializer[QueryCheck] = QueryCheckMUS

func (queryCheckMUS) Marshal(c QueryCheck, bs []byte) (n int) {
	n = ord.String.Marshal(c.Query, bs)
	n += ord.Bool.Marshal(c.Passed, bs[n:])
	n += ord.Bool.Marshal(c.Warned, bs[n:])
	n += ord.String.Marshal(c.Reason, bs[n:])
	return n
}

func (queryCheckMUS) Unmarshal(bs []byte) (c QueryCheck, n int, err error) {
	var n1 int
	if c.Query, n, err = ord.String.Unmarshal(bs); err != nil {
		return
	}
	if c.Passed, n1, err = ord.Bool.Unmarshal(bs[n:]); err != nil {
		return c, n + n1, err
	}
	n += n1
	if c.Warned, n1, err = ord.Bool.Unmarshal(bs[n:]); err != nil {
		return c, n + n1, err
	}
	n += n1
	if c.Reason, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return c, n + n1, err
	}
	return c, n + n1, nil
}

func (queryCheckMUS) Size(c QueryCheck) (size int) {
	size = ord.String.Size(c.Query)
	size += ord.Bool.Size(c.Passed)
	size += ord.Bool.Size(c.Warned)
	size += ord.String.Size(c.Reason)
	return size
}

func (queryCheckMUS) Skip(bs []byte) (n int, err error) {
	var n1 int
	if n, err = ord.String.Skip(bs); err != nil {
		return
	}
	if n1, err = ord.Bool.Skip(bs[n:]); err != nil {
		return n + n1, err
	}
	n += n1
	if n1, err = ord.Bool.Skip(bs[n:]); err != nil {
		return n + n1, err
	}
	n += n1
	if n1, err = ord.String.Skip(bs[n:]); err != nil {
		return n + n1, err
	}
	return n + n1, nil
}

// EvaluationResultMUS serializes EvaluationResults.
var EvaluationResultMUS = evaluationResultMUS{}

type evaluationResultMUS struct{}

var _ mus.Serializer[EvaluationResult] = EvaluationResultMUS

func (evaluationResultMUS) Marshal(r EvaluationResult, bs []byte) (n int) {
	n = ord.String.Marshal(r.Id, bs)
	n += ord.String.Marshal(r.Dataset, bs[n:])
	n += ord.Bool.Marshal(r.Passed, bs[n:])
	n += varint.Int.Marshal(len(r.Checks), bs[n:])
	for _, check := range r.Checks {
		n += QueryCheckMUS.Marshal(check, bs[n:])
	}
	n += varint.Int.Marshal(len(r.IntegrityIssues), bs[n:])
	for _, issue := range r.IntegrityIssues {
		n += ord.String.Marshal(issue, bs[n:])
	}
	n += varint.Int64.Marshal(r.CreatedAt.UnixMicro(), bs[n:])
	return n
}

func (evaluationResultMUS) Unmarshal(bs []byte) (r EvaluationResult, n int, err error) {
	var n1 int
	if r.Id, n, err = ord.String.Unmarshal(bs); err != nil {
		return
	}
	if r.Dataset, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return r, n + n1, err
	}
	n += n1
	if r.Passed, n1, err = ord.Bool.Unmarshal(bs[n:]); err != nil {
		return r, n + n1, err
	}
	n += n1
	var count int
	if count, n1, err = varint.Int.Unmarshal(bs[n:]); err != nil {
		return r, n + n1, err
	}
	n += n1
	if count > 0 {
		r.Checks = make([]QueryCheck, count)
		for i := 0; i < count; i++ {
			if r.Checks[i], n1, err = QueryCheckMUS.Unmarshal(bs[n:]); err != nil {
				return r, n + n1, err
			}
			n += n1
		}
	}
	if count, n1, err = varint.Int.Unmarshal(bs[n:]); err != nil {
		return r, n + n1, err
	}
	n += n1
	if count > 0 {
		r.IntegrityIssues = make([]string, count)
		for i := 0; i < count; i++ {
			if r.IntegrityIssues[i], n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
				return r, n + n1, err
			}
			n += n1
		}
	}
	var micros int64
	if micros, n1, err = varint.Int64.Unmarshal(bs[n:]); err != nil {
		return r, n + n1, err
	}
	n += n1
	r.CreatedAt = time.UnixMicro(micros).UTC()
	return r, n, nil
}

func (evaluationResultMUS) Size(r EvaluationResult) (size int) {
	size = ord.String.Size(r.Id)
	size += ord.String.Size(r.Dataset)
	size += ord.Bool.Size(r.Passed)
	size += varint.Int.Size(len(r.Checks))
	for _, check := range r.Checks {
		size += QueryCheckMUS.Size(check)
	}
	size += varint.Int.Size(len(r.IntegrityIssues))
	for _, issue := range r.IntegrityIssues {
		size += ord.String.Size(issue)
	}
	size += varint.Int64.Size(r.CreatedAt.UnixMicro())
	return size
}

func (evaluationResultMUS) Skip(bs []byte) (n int, err error) {
	_, n, err = EvaluationResultMUS.Unmarshal(bs)
	return n, err
}
