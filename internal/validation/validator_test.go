// Jamf Sync - MDM Device Reconciliation for GLPI
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/jamfsync

package validation

import (
	"errors"
	"strings"
	"testing"
)

type sample struct {
	Category string `validate:"required,category"`
	Itemtype string `validate:"omitempty,itemtype"`
	Pattern  string `validate:"omitempty,regexp"`
	PageSize int    `validate:"gte=1,lte=2000"`
}

func TestGetValidator_Singleton(t *testing.T) {
	if GetValidator() != GetValidator() {
		t.Error("expected the same validator instance")
	}
}

func TestValidateStruct(t *testing.T) {
	tests := []struct {
		name      string
		input     sample
		wantError string
	}{
		{"valid", sample{Category: "MobileDevice", Itemtype: "Phone", Pattern: "^iP(hone|ad)", PageSize: 100}, ""},
		{"missing category", sample{PageSize: 1}, "sample.Category is required"},
		{"bad category", sample{Category: "Printer", PageSize: 1}, "must be Computer or MobileDevice"},
		{"bad itemtype", sample{Category: "Computer", Itemtype: "Monitor", PageSize: 1}, "must be Computer or Phone"},
		{"bad regexp", sample{Category: "Computer", Pattern: "([", PageSize: 1}, "valid regular expression"},
		{"page size too large", sample{Category: "Computer", PageSize: 5000}, "less than or equal to 2000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateStruct(&tt.input)
			if tt.wantError == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("expected error containing %q", tt.wantError)
			}
			var serr *StructError
			if !errors.As(err, &serr) {
				t.Fatalf("expected *StructError, got %T", err)
			}
			if !strings.Contains(err.Error(), tt.wantError) {
				t.Errorf("error %q does not contain %q", err.Error(), tt.wantError)
			}
		})
	}
}
