package services

import (
	"slices"
	"testing"

	"github.com/isdelr/simplecomm-be/internal/models"
)

func ids(cs []models.Community) []string {
	out := make([]string, len(cs))
	for i, c := range cs {
		out[i] = c.ID
	}
	return out
}

func TestRecommend(t *testing.T) {
	all := []models.Community{
		{ID: "g1", Category: "Gaming"},
		{ID: "m1", Category: "Musik & Film"},
		{ID: "g2", Category: "Gaming"},
		{ID: "m2", Category: "Musik & Film"},
		{ID: "t1", Category: "Teknologi & Coding"},
	}

	tests := []struct {
		name   string
		joined []string
		all    []models.Community
		want   []string
	}{
		{"top category first, padded in store order", []string{"g1"}, all, []string{"g2", "m1", "m2"}},
		{"no joined communities", nil, all, []string{"g1", "m1", "g2"}},
		{"tie broken by category name", []string{"g1", "m1"}, all, []string{"g2", "m2", "t1"}},
		{"pool exhausted", []string{"g1", "m1", "g2"}, all, []string{"m2", "t1"}},
		{"everything joined", []string{"g1", "m1", "g2", "m2", "t1"}, all, []string{}},
		{"empty store", []string{"x"}, nil, []string{}},
		{"unknown joined ids are ignored", []string{"gone"}, all, []string{"g1", "m1", "g2"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ids(Recommend(tt.joined, tt.all, RecommendationLimit))
			if !slices.Equal(got, tt.want) {
				t.Errorf("Recommend() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRecommendTopCategoryFillsLimit(t *testing.T) {
	all := []models.Community{
		{ID: "a", Category: "Gaming"},
		{ID: "b", Category: "Seni & Desain"},
		{ID: "c", Category: "Seni & Desain"},
		{ID: "d", Category: "Seni & Desain"},
		{ID: "e", Category: "Seni & Desain"},
	}
	got := ids(Recommend([]string{"b"}, all, RecommendationLimit))
	if want := []string{"c", "d", "e"}; !slices.Equal(got, want) {
		t.Errorf("Recommend() = %v, want %v", got, want)
	}
}
