package masterController

import (
	"context"
	"testing"

	. "checklist/internal/models"
	"checklist/internal/services"

	logger "github.com/Bparsons0904/goLogger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildItems(t *testing.T) {
	optional := false
	items := buildItems([]ItemRequest{
		{ActivityName: "  Check exits "},
		{ID: 12, ActivityName: "Test alarm", IsRequired: &optional},
	})

	require.Len(t, items, 2)
	assert.Equal(t, "Check exits", items[0].ActivityName)
	assert.True(t, items[0].IsRequired)
	assert.Equal(t, 1, items[0].Position)
	assert.Zero(t, items[0].ID)

	assert.Equal(t, 12, items[1].ID)
	assert.False(t, items[1].IsRequired)
	assert.Equal(t, 2, items[1].Position)
}

func TestMasterSnapshot(t *testing.T) {
	master := &ChecklistMaster{
		Name:            "Daily Safety Check",
		Code:            "CK-0A1B2C3D",
		ChecklistTypeID: 2,
		Items:           []ChecklistItem{{ActivityName: "Check exits"}, {ActivityName: "Test alarm"}},
	}

	snapshot := masterSnapshot(master)
	assert.Equal(t, "Daily Safety Check", snapshot["name"])
	assert.Equal(t, 2, snapshot["itemCount"])
	assert.Equal(t, []string{"Check exits", "Test alarm"}, snapshot["items"])

	entry := ChecklistLog{Activity: ActivityCreateMaster, After: snapshot}
	assert.Equal(t, `Created checklist master "Daily Safety Check" (2 items)`, entry.Describe())
}

func TestRequestValidation(t *testing.T) {
	controller := &MasterController{log: logger.New("masterController")}

	tests := []struct {
		name    string
		request MasterRequest
	}{
		{"blank name", MasterRequest{Name: " ", ChecklistTypeID: 1, Items: []ItemRequest{{ActivityName: "a"}}}},
		{"no type", MasterRequest{Name: "Safety", Items: []ItemRequest{{ActivityName: "a"}}}},
		{"no items", MasterRequest{Name: "Safety", ChecklistTypeID: 1}},
		{"blank item", MasterRequest{Name: "Safety", ChecklistTypeID: 1, Items: []ItemRequest{{ActivityName: ""}}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := controller.Create(context.Background(), &tt.request)
			assert.ErrorIs(t, err, services.ErrValidation)

			_, err = controller.Update(context.Background(), 1, &tt.request)
			assert.ErrorIs(t, err, services.ErrValidation)
		})
	}

	_, err := controller.Logs(context.Background(), 1, "not_an_activity")
	assert.ErrorIs(t, err, services.ErrValidation)
}
