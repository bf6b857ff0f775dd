package grid

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func workDays(days ...int) *WeekdaySet {
	s := NewWeekdaySet(days...)
	return &s
}

func roomsAndOwners() []ResourceLevel {
	return []ResourceLevel{
		{
			Name: "Rooms", Title: "Room", Field: "RoomId",
			Resources: []Resource{
				{ID: "1", Text: "ROOM 1", Color: "#cb6bb2"},
				{ID: "2", Text: "ROOM 2", Color: "#56ca85"},
			},
		},
		{
			Name: "Owners", Title: "Owner", Field: "OwnerId", AllowMultiple: true,
			Resources: []Resource{
				{ID: "1", Text: "Nancy", GroupID: "1", Color: "#ffaa00"},
				{ID: "3", Text: "Steven", GroupID: "2", Color: "#f8a398"},
				{ID: "5", Text: "Michael", GroupID: "1", Color: "#7499e1"},
			},
		},
	}
}

func leafNames(tree *ResourceTree) []string {
	var out []string
	for _, l := range tree.Leaves {
		out = append(out, l.Resource.Text)
	}
	return out
}

func TestExpandResourcesNestsByGroupID(t *testing.T) {
	tree, err := ExpandResources(roomsAndOwners(), GroupConfig{Resources: []string{"Rooms", "Owners"}}, DefaultWorkDays)
	require.NoError(t, err)

	if diff := cmp.Diff([]string{"Nancy", "Michael", "Steven"}, leafNames(tree)); diff != "" {
		t.Fatalf("leaves mismatch (-want +got):\n%s", diff)
	}
	require.Len(t, tree.Levels, 2)
	assert.Len(t, tree.Levels[0], 2)
	assert.Equal(t, 2, tree.Levels[0][0].LeafCount)
	assert.Equal(t, 1, tree.Levels[0][1].LeafCount)
	assert.Equal(t, 3, tree.GroupCount())

	for i, leaf := range tree.Leaves {
		assert.Equal(t, i, leaf.GroupIndex)
	}
	path := tree.Leaves[2].Path()
	require.Len(t, path, 2)
	assert.Equal(t, "ROOM 2", path[0].Text)
	assert.Equal(t, "Steven", path[1].Text)
}

func TestExpandResourcesWorkDayOverride(t *testing.T) {
	levels := roomsAndOwners()
	levels[1].Resources[0].WorkDays = workDays(1, 2)
	levels[0].Resources[1].WorkDays = workDays(6)

	tree, err := ExpandResources(levels, GroupConfig{Resources: []string{"Rooms", "Owners"}}, DefaultWorkDays)
	require.NoError(t, err)

	assert.Equal(t, NewWeekdaySet(1, 2), tree.Leaves[0].WorkDays)
	assert.Equal(t, DefaultWorkDays, tree.Leaves[1].WorkDays)
	assert.Equal(t, NewWeekdaySet(6), tree.Leaves[2].WorkDays, "inherits from room")
}

func TestExpandResourcesDropsChildlessParents(t *testing.T) {
	levels := roomsAndOwners()
	levels[0].Resources = append(levels[0].Resources, Resource{ID: "9", Text: "EMPTY"})

	tree, err := ExpandResources(levels, GroupConfig{Resources: []string{"Rooms", "Owners"}}, DefaultWorkDays)
	require.NoError(t, err)
	assert.Len(t, tree.Levels[0], 2)
	assert.Len(t, tree.Leaves, 3)
}

func TestExpandResourcesUngroupedChildAttachesEverywhere(t *testing.T) {
	levels := roomsAndOwners()
	levels[1].Resources = []Resource{{ID: "7", Text: "Shared"}}

	tree, err := ExpandResources(levels, GroupConfig{Resources: []string{"Rooms", "Owners"}}, DefaultWorkDays)
	require.NoError(t, err)
	assert.Equal(t, []string{"Shared", "Shared"}, leafNames(tree))
}

func TestExpandResourcesUnknownLevel(t *testing.T) {
	_, err := ExpandResources(roomsAndOwners(), GroupConfig{Resources: []string{"Rooms", "Cars"}}, DefaultWorkDays)
	assert.ErrorIs(t, err, ErrUnknownResource)
}

func TestExpandResourcesEmptyGroup(t *testing.T) {
	tree, err := ExpandResources(roomsAndOwners(), GroupConfig{}, DefaultWorkDays)
	require.NoError(t, err)
	assert.Empty(t, tree.Leaves)
	assert.Equal(t, 1, tree.GroupCount())

	var nilTree *ResourceTree
	assert.Equal(t, 1, nilTree.GroupCount())
	assert.Nil(t, nilTree.Leaf(0))
}
