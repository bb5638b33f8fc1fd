package core

import (
	"time"

	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/raw"
	"github.com/mus-format/mus-go/varint"
)

// MUS serializers for the stored record types. Field order is the wire
// order; append new fields at the end of a struct's serializer only.

var (
	IDMUS               = idMUS{}
	CheckpointMUS       = checkpointMUS{}
	OccurrenceMUS       = occurrenceMUS{}
	ReconciledEntityMUS = reconciledEntityMUS{}
	DocumentMUS         = documentMUS{}
)

type idMUS struct{}

func (idMUS) Marshal(v ID, bs []byte) (n int) {
	return varint.Uint64.Marshal(uint64(v), bs)
}

func (idMUS) Unmarshal(bs []byte) (v ID, n int, err error) {
	u, n, err := varint.Uint64.Unmarshal(bs)
	return ID(u), n, err
}

func (idMUS) Size(v ID) (size int) {
	return varint.Uint64.Size(uint64(v))
}

// Times are stored as Unix microseconds, with 0 reserved for the zero time.
type timeMUS struct{}

func (timeMUS) Marshal(v time.Time, bs []byte) (n int) {
	return varint.Int64.Marshal(unixMicro(v), bs)
}

func (timeMUS) Unmarshal(bs []byte) (v time.Time, n int, err error) {
	us, n, err := varint.Int64.Unmarshal(bs)
	if err != nil || us == 0 {
		return time.Time{}, n, err
	}
	return time.UnixMicro(us).UTC(), n, nil
}

func (timeMUS) Size(v time.Time) (size int) {
	return varint.Int64.Size(unixMicro(v))
}

func unixMicro(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMicro()
}

type stringsMUS struct{}

func (stringsMUS) Marshal(v []string, bs []byte) (n int) {
	n = varint.Int.Marshal(len(v), bs)
	for _, s := range v {
		n += ord.String.Marshal(s, bs[n:])
	}
	return n
}

func (stringsMUS) Unmarshal(bs []byte) (v []string, n int, err error) {
	length, n, err := varint.Int.Unmarshal(bs)
	if err != nil || length == 0 {
		return nil, n, err
	}
	v = make([]string, length)
	var n1 int
	for i := range v {
		v[i], n1, err = ord.String.Unmarshal(bs[n:])
		n += n1
		if err != nil {
			return nil, n, err
		}
	}
	return v, n, nil
}

func (stringsMUS) Size(v []string) (size int) {
	size = varint.Int.Size(len(v))
	for _, s := range v {
		size += ord.String.Size(s)
	}
	return size
}

type vectorMUS struct{}

func (vectorMUS) Marshal(v []float32, bs []byte) (n int) {
	n = varint.Int.Marshal(len(v), bs)
	for _, f := range v {
		n += raw.Float32.Marshal(f, bs[n:])
	}
	return n
}

func (vectorMUS) Unmarshal(bs []byte) (v []float32, n int, err error) {
	length, n, err := varint.Int.Unmarshal(bs)
	if err != nil || length == 0 {
		return nil, n, err
	}
	v = make([]float32, length)
	var n1 int
	for i := range v {
		v[i], n1, err = raw.Float32.Unmarshal(bs[n:])
		n += n1
		if err != nil {
			return nil, n, err
		}
	}
	return v, n, nil
}

func (vectorMUS) Size(v []float32) (size int) {
	size = varint.Int.Size(len(v))
	for _, f := range v {
		size += raw.Float32.Size(f)
	}
	return size
}

type checkpointMUS struct{}

func (checkpointMUS) Marshal(v Checkpoint, bs []byte) (n int) {
	n = ord.String.Marshal(v.ProcessorType, bs)
	n += IDMUS.Marshal(v.LastID, bs[n:])
	n += timeMUS{}.Marshal(v.UpdatedAt, bs[n:])
	return n
}

func (checkpointMUS) Unmarshal(bs []byte) (v Checkpoint, n int, err error) {
	var n1 int
	v.ProcessorType, n, err = ord.String.Unmarshal(bs)
	if err != nil {
		return
	}
	v.LastID, n1, err = IDMUS.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.UpdatedAt, n1, err = timeMUS{}.Unmarshal(bs[n:])
	n += n1
	return
}

func (checkpointMUS) Size(v Checkpoint) (size int) {
	size = ord.String.Size(v.ProcessorType)
	size += IDMUS.Size(v.LastID)
	return size + timeMUS{}.Size(v.UpdatedAt)
}

type occurrenceMUS struct{}

func (occurrenceMUS) Marshal(v Occurrence, bs []byte) (n int) {
	n = varint.Int.Marshal(v.Start, bs)
	n += varint.Int.Marshal(v.End, bs[n:])
	n += raw.Float64.Marshal(v.ScoreSum, bs[n:])
	n += varint.Int.Marshal(v.Count, bs[n:])
	n += raw.Float64.Marshal(v.CombinedScore, bs[n:])
	n += stringsMUS{}.Marshal(v.Models, bs[n:])
	return n
}

func (occurrenceMUS) Unmarshal(bs []byte) (v Occurrence, n int, err error) {
	var n1 int
	v.Start, n, err = varint.Int.Unmarshal(bs)
	if err != nil {
		return
	}
	v.End, n1, err = varint.Int.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.ScoreSum, n1, err = raw.Float64.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.Count, n1, err = varint.Int.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.CombinedScore, n1, err = raw.Float64.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.Models, n1, err = stringsMUS{}.Unmarshal(bs[n:])
	n += n1
	return
}

func (occurrenceMUS) Size(v Occurrence) (size int) {
	size = varint.Int.Size(v.Start)
	size += varint.Int.Size(v.End)
	size += raw.Float64.Size(v.ScoreSum)
	size += varint.Int.Size(v.Count)
	size += raw.Float64.Size(v.CombinedScore)
	return size + stringsMUS{}.Size(v.Models)
}

type reconciledEntityMUS struct{}

func (reconciledEntityMUS) Marshal(v ReconciledEntity, bs []byte) (n int) {
	n = ord.String.Marshal(v.EntityGroup, bs)
	n += ord.String.Marshal(v.Word, bs[n:])
	n += varint.Int.Marshal(v.Occurrences, bs[n:])
	n += raw.Float64.Marshal(v.OverallCombinedScore, bs[n:])
	n += stringsMUS{}.Marshal(v.Models, bs[n:])
	n += varint.Int.Marshal(len(v.Positions), bs[n:])
	for _, o := range v.Positions {
		n += OccurrenceMUS.Marshal(o, bs[n:])
	}
	return n
}

func (reconciledEntityMUS) Unmarshal(bs []byte) (v ReconciledEntity, n int, err error) {
	var n1 int
	v.EntityGroup, n, err = ord.String.Unmarshal(bs)
	if err != nil {
		return
	}
	v.Word, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.Occurrences, n1, err = varint.Int.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.OverallCombinedScore, n1, err = raw.Float64.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.Models, n1, err = stringsMUS{}.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	var length int
	length, n1, err = varint.Int.Unmarshal(bs[n:])
	n += n1
	if err != nil || length == 0 {
		return
	}
	v.Positions = make([]Occurrence, length)
	for i := range v.Positions {
		v.Positions[i], n1, err = OccurrenceMUS.Unmarshal(bs[n:])
		n += n1
		if err != nil {
			return
		}
	}
	return
}

func (reconciledEntityMUS) Size(v ReconciledEntity) (size int) {
	size = ord.String.Size(v.EntityGroup)
	size += ord.String.Size(v.Word)
	size += varint.Int.Size(v.Occurrences)
	size += raw.Float64.Size(v.OverallCombinedScore)
	size += stringsMUS{}.Size(v.Models)
	size += varint.Int.Size(len(v.Positions))
	for _, o := range v.Positions {
		size += OccurrenceMUS.Size(o)
	}
	return size
}

type documentMUS struct{}

func (documentMUS) Marshal(v Document, bs []byte) (n int) {
	n = IDMUS.Marshal(v.Id, bs)
	n += ord.String.Marshal(v.PMID, bs[n:])
	n += ord.String.Marshal(v.Title, bs[n:])
	n += ord.String.Marshal(v.Abstract, bs[n:])
	n += ord.String.Marshal(v.Published, bs[n:])
	n += ord.String.Marshal(v.Segment1, bs[n:])
	n += ord.String.Marshal(v.Segment2, bs[n:])
	n += varint.Int.Marshal(len(v.Entities), bs[n:])
	for _, e := range v.Entities {
		n += ReconciledEntityMUS.Marshal(e, bs[n:])
	}
	n += timeMUS{}.Marshal(v.ExtractedAt, bs[n:])
	n += ord.String.Marshal(v.Summary, bs[n:])
	n += vectorMUS{}.Marshal(v.Vector, bs[n:])
	n += timeMUS{}.Marshal(v.InsertedAt, bs[n:])
	n += timeMUS{}.Marshal(v.UpdatedAt, bs[n:])
	return n
}

func (documentMUS) Unmarshal(bs []byte) (v Document, n int, err error) {
	var n1 int
	v.Id, n, err = IDMUS.Unmarshal(bs)
	if err != nil {
		return
	}
	for _, field := range []*string{&v.PMID, &v.Title, &v.Abstract, &v.Published, &v.Segment1, &v.Segment2} {
		*field, n1, err = ord.String.Unmarshal(bs[n:])
		n += n1
		if err != nil {
			return
		}
	}
	var length int
	length, n1, err = varint.Int.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	if length > 0 {
		v.Entities = make([]ReconciledEntity, length)
		for i := range v.Entities {
			v.Entities[i], n1, err = ReconciledEntityMUS.Unmarshal(bs[n:])
			n += n1
			if err != nil {
				return
			}
		}
	}
	v.ExtractedAt, n1, err = timeMUS{}.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.Summary, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.Vector, n1, err = vectorMUS{}.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.InsertedAt, n1, err = timeMUS{}.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.UpdatedAt, n1, err = timeMUS{}.Unmarshal(bs[n:])
	n += n1
	return
}

func (documentMUS) Size(v Document) (size int) {
	size = IDMUS.Size(v.Id)
	for _, s := range []string{v.PMID, v.Title, v.Abstract, v.Published, v.Segment1, v.Segment2} {
		size += ord.String.Size(s)
	}
	size += varint.Int.Size(len(v.Entities))
	for _, e := range v.Entities {
		size += ReconciledEntityMUS.Size(e)
	}
	size += timeMUS{}.Size(v.ExtractedAt)
	size += ord.String.Size(v.Summary)
	size += vectorMUS{}.Size(v.Vector)
	size += timeMUS{}.Size(v.InsertedAt)
	return size + timeMUS{}.Size(v.UpdatedAt)
}
