package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTableNames(t *testing.T) {
	tests := []struct {
		name     string
		model    interface{ TableName() string }
		expected string
	}{
		{"SailboardInfo", &SailboardInfo{}, "sailboard_infos"},
		{"FleetExport", &FleetExport{}, "fleet_exports"},
		{"ShipSnapshot", &ShipSnapshot{}, "ship_snapshots"},
		{"ShipSample", &ShipSample{}, "ship_samples"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.model.TableName())
		})
	}
}

func TestDatabaseModels(t *testing.T) {
	assert.Len(t, DatabaseModels, 4)
}
