package core

import (
	"errors"
	"math"
	"testing"
)

func TestValidateDocument(t *testing.T) {
	tests := []struct {
		name    string
		doc     *Document
		wantErr error
	}{
		{
			name:    "valid document",
			doc:     &Document{PMID: "38012345", Abstract: "text"},
			wantErr: nil,
		},
		{
			name:    "valid document without abstract",
			doc:     &Document{PMID: "38012345"},
			wantErr: nil,
		},
		{
			name:    "nil document",
			doc:     nil,
			wantErr: ErrInvalidDocument,
		},
		{
			name:    "empty PMID",
			doc:     &Document{Abstract: "text"},
			wantErr: ErrEmptyPMID,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateDocument(tt.doc)

			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("ValidateDocument() error = %v, want nil", err)
				}
				return
			}

			if err == nil {
				t.Errorf("ValidateDocument() error = nil, want %v", tt.wantErr)
				return
			}

			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateDocument() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateDetection(t *testing.T) {
	valid := func() *RawDetection {
		return &RawDetection{Label: "Chemical", Text: "Fluoxetine", Start: 10, End: 20, Score: 0.9, SourceModel: "A"}
	}

	tests := []struct {
		name    string
		mutate  func(d *RawDetection)
		wantErr error
	}{
		{name: "valid detection", mutate: func(d *RawDetection) {}},
		{name: "zero width span", mutate: func(d *RawDetection) { d.End = d.Start }},
		{name: "score of one", mutate: func(d *RawDetection) { d.Score = 1 }},
		{name: "empty label", mutate: func(d *RawDetection) { d.Label = "" }, wantErr: ErrEmptyLabel},
		{name: "empty text", mutate: func(d *RawDetection) { d.Text = "" }, wantErr: ErrEmptyText},
		{name: "negative start", mutate: func(d *RawDetection) { d.Start = -1 }, wantErr: ErrInvalidSpan},
		{name: "reversed span", mutate: func(d *RawDetection) { d.End = 5 }, wantErr: ErrInvalidSpan},
		{name: "score above one", mutate: func(d *RawDetection) { d.Score = 1.2 }, wantErr: ErrInvalidScore},
		{name: "negative score", mutate: func(d *RawDetection) { d.Score = -0.1 }, wantErr: ErrInvalidScore},
		{name: "NaN score", mutate: func(d *RawDetection) { d.Score = math.NaN() }, wantErr: ErrInvalidScore},
		{name: "missing model", mutate: func(d *RawDetection) { d.SourceModel = "" }, wantErr: ErrEmptySourceModel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			det := valid()
			tt.mutate(det)
			err := ValidateDetection(det)

			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("ValidateDetection() error = %v, want nil", err)
				}
				return
			}

			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateDetection() error = %v, want %v", err, tt.wantErr)
			}
			if !errors.Is(err, ErrInvalidDetection) {
				t.Errorf("ValidateDetection() error = %v, want wrapped %v", err, ErrInvalidDetection)
			}
		})
	}

	if err := ValidateDetection(nil); !errors.Is(err, ErrInvalidDetection) {
		t.Errorf("ValidateDetection(nil) error = %v, want %v", err, ErrInvalidDetection)
	}
}
