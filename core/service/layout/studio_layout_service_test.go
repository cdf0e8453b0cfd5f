package layout

import (
	"context"
	"strings"
	"testing"

	"studio_server/core/domain"
	"studio_server/core/service/compliance"
	"studio_server/core/service/vision"
	"studio_server/pkg/apperr"
	"studio_server/pkg/snowflake"
)

// =============================================================================
// Fakes
// =============================================================================

type fakeLayoutStore struct {
	byID map[string]*domain.LayoutVariation
}

func newFakeLayoutStore() *fakeLayoutStore {
	return &fakeLayoutStore{byID: map[string]*domain.LayoutVariation{}}
}

func (f *fakeLayoutStore) Save(_ context.Context, l *domain.LayoutVariation) error {
	f.byID[l.ID] = l
	return nil
}

func (f *fakeLayoutStore) SaveBatch(_ context.Context, layouts []*domain.LayoutVariation) error {
	for _, l := range layouts {
		f.byID[l.ID] = l
	}
	return nil
}

func (f *fakeLayoutStore) Update(_ context.Context, l *domain.LayoutVariation) error {
	f.byID[l.ID] = l
	return nil
}

func (f *fakeLayoutStore) Delete(_ context.Context, id string) error {
	delete(f.byID, id)
	return nil
}

func (f *fakeLayoutStore) GetByID(_ context.Context, id string) (*domain.LayoutVariation, error) {
	return f.byID[id], nil
}

func (f *fakeLayoutStore) ListByUser(_ context.Context, userID string, limit, offset int) ([]*domain.LayoutVariation, int, error) {
	var out []*domain.LayoutVariation
	for _, l := range f.byID {
		if l.UserID == userID {
			out = append(out, l)
		}
	}
	return out, len(out), nil
}

func (f *fakeLayoutStore) ListByTerritory(_ context.Context, userID, territoryID string) ([]*domain.LayoutVariation, error) {
	var out []*domain.LayoutVariation
	for _, l := range f.byID {
		if l.UserID == userID && l.TerritoryID == territoryID {
			out = append(out, l)
		}
	}
	return out, nil
}

func (f *fakeLayoutStore) DeleteByUser(_ context.Context, userID string) (int, error) {
	n := 0
	for id, l := range f.byID {
		if l.UserID == userID {
			delete(f.byID, id)
			n++
		}
	}
	return n, nil
}

type fakeAssetLookup struct {
	assets map[string]*domain.Asset
}

func (f *fakeAssetLookup) GetByIDs(_ context.Context, ids []string) (map[string]*domain.Asset, error) {
	out := map[string]*domain.Asset{}
	for _, id := range ids {
		if a, ok := f.assets[id]; ok {
			out[id] = a
		}
	}
	return out, nil
}

func (f *fakeAssetLookup) Create(context.Context, *domain.Asset) error { return nil }
func (f *fakeAssetLookup) Update(context.Context, *domain.Asset) error { return nil }
func (f *fakeAssetLookup) Delete(context.Context, string) error        { return nil }
func (f *fakeAssetLookup) GetByID(_ context.Context, id string) (*domain.Asset, error) {
	return f.assets[id], nil
}
func (f *fakeAssetLookup) List(context.Context, string, *domain.AssetFilter) ([]*domain.Asset, int, error) {
	return nil, 0, nil
}
func (f *fakeAssetLookup) ListByCollection(context.Context, string, string, int, int) ([]*domain.Asset, int, error) {
	return nil, 0, nil
}
func (f *fakeAssetLookup) ListByGenerationBatch(context.Context, string) ([]*domain.Asset, error) {
	return nil, nil
}
func (f *fakeAssetLookup) UpdateStatus(context.Context, string, domain.AssetStatus) error { return nil }
func (f *fakeAssetLookup) UpdateTags(context.Context, string, []string) error             { return nil }
func (f *fakeAssetLookup) SetFavorite(context.Context, string, bool) error                { return nil }
func (f *fakeAssetLookup) AddToCollection(context.Context, string, string) error          { return nil }
func (f *fakeAssetLookup) RemoveFromCollection(context.Context, string, string) error     { return nil }
func (f *fakeAssetLookup) CountByKind(context.Context, string) (map[domain.AssetKind]int, error) {
	return nil, nil
}

type fakeBrandRepo struct {
	def *domain.BrandGuidelines
}

func (f *fakeBrandRepo) Create(context.Context, *domain.BrandGuidelines) error { return nil }
func (f *fakeBrandRepo) Update(context.Context, *domain.BrandGuidelines) error { return nil }
func (f *fakeBrandRepo) Delete(context.Context, string) error                  { return nil }
func (f *fakeBrandRepo) GetByID(context.Context, string) (*domain.BrandGuidelines, error) {
	return nil, nil
}
func (f *fakeBrandRepo) GetDefault(context.Context, string) (*domain.BrandGuidelines, error) {
	return f.def, nil
}
func (f *fakeBrandRepo) List(context.Context, string) ([]*domain.BrandGuidelines, error) {
	return nil, nil
}
func (f *fakeBrandRepo) SetDefault(context.Context, string, string) error { return nil }

// =============================================================================
// Harness
// =============================================================================

func newTestService(t *testing.T, assets map[string]*domain.Asset) (*Service, *fakeLayoutStore) {
	t.Helper()
	_ = snowflake.Init(1)

	store := newFakeLayoutStore()
	svc := NewService(
		store,
		&fakeAssetLookup{assets: assets},
		&fakeBrandRepo{def: &domain.BrandGuidelines{
			Colors: domain.BrandColors{Primary: "#2244cc"},
		}},
		vision.NewService(),
		compliance.NewService(),
	)
	return svc, store
}

func ownedAssets(userID string, ids ...string) map[string]*domain.Asset {
	out := map[string]*domain.Asset{}
	for _, id := range ids {
		out[id] = &domain.Asset{ID: id, UserID: userID, Kind: domain.AssetKindImage}
	}
	return out
}

// =============================================================================
// Tests
// =============================================================================

func TestGenerateLayoutsValidation(t *testing.T) {
	svc, _ := newTestService(t, nil)
	ctx := context.Background()

	tests := []struct {
		name string
		req  *domain.LayoutGenerationRequest
		code string
	}{
		{"nil request", nil, apperr.CodeBadRequest},
		{"no formats", &domain.LayoutGenerationRequest{}, apperr.CodeMissingField},
		{
			"unknown format",
			&domain.LayoutGenerationRequest{Formats: []domain.ChannelFormat{"billboard"}},
			apperr.CodeValidationFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.GenerateLayouts(ctx, "user-1", tt.req)
			if err == nil {
				t.Fatal("expected an error")
			}
			if ae := apperr.AsAppError(err); ae == nil || ae.Code != tt.code {
				t.Errorf("error = %v, want code %s", err, tt.code)
			}
		})
	}
}

func TestGenerateLayoutsPersistsCandidates(t *testing.T) {
	assets := ownedAssets("user-1", "asset-a", "asset-b")
	svc, store := newTestService(t, assets)

	req := testRequest(domain.FormatInstagramPost, domain.FormatHeroBanner)
	req.AssetIDs = []string{"asset-a", "asset-b"}
	req.Preferences = []domain.TemplatePreference{
		{Layout: domain.ArchetypeHero},
		{Layout: domain.ArchetypeSplit},
	}

	resp, err := svc.GenerateLayouts(context.Background(), "user-1", req)
	if err != nil {
		t.Fatalf("GenerateLayouts() error = %v", err)
	}
	if len(resp.Layouts) != 4 {
		t.Fatalf("layouts = %d, want 4", len(resp.Layouts))
	}
	if resp.Analysis == nil || len(resp.Analysis.Matches) != 2 {
		t.Error("analysis should cover both assets")
	}

	for _, l := range resp.Layouts {
		if l.ID == "" || !strings.HasPrefix(l.ID, "layout_") {
			t.Errorf("layout id %q lacks prefix", l.ID)
		}
		if l.UserID != "user-1" || l.TerritoryID != "terr-1" {
			t.Errorf("ownership not stamped: %q/%q", l.UserID, l.TerritoryID)
		}
		if l.Compliance == nil {
			t.Error("layout missing a compliance score")
		}
		if store.byID[l.ID] == nil {
			t.Errorf("layout %s not persisted", l.ID)
		}
	}
}

func TestGenerateLayoutsSkipsForeignAssets(t *testing.T) {
	assets := ownedAssets("someone-else", "asset-x")
	svc, _ := newTestService(t, assets)

	req := testRequest(domain.FormatInstagramPost)
	req.AssetIDs = []string{"asset-x"}

	resp, err := svc.GenerateLayouts(context.Background(), "user-1", req)
	if err != nil {
		t.Fatalf("GenerateLayouts() error = %v", err)
	}
	for _, l := range resp.Layouts {
		for _, img := range l.Images {
			if img.AssetID == "asset-x" {
				t.Fatal("foreign asset placed in a layout")
			}
		}
	}
}

func TestRankCandidatesBreaksTiesOnCompliance(t *testing.T) {
	mk := func(id string, prediction, overall float64) *domain.LayoutVariation {
		return &domain.LayoutVariation{
			ID:                    id,
			PerformancePrediction: prediction,
			Compliance:            &domain.ComplianceScore{Overall: overall},
		}
	}
	variations := []*domain.LayoutVariation{
		mk("low", 72.5, 95),
		mk("tied-weak", 80.0, 70),
		mk("tied-strong", 80.0, 88),
		{ID: "unscored", PerformancePrediction: 80.0},
	}

	rankCandidates(variations)

	want := []string{"tied-strong", "tied-weak", "unscored", "low"}
	for i, v := range variations {
		if v.ID != want[i] {
			t.Fatalf("rank %d = %s, want %s", i, v.ID, want[i])
		}
	}
}

func TestUpdateLayoutMarksDirtyWithoutRescoring(t *testing.T) {
	assets := ownedAssets("user-1", "asset-a")
	svc, store := newTestService(t, assets)

	req := testRequest(domain.FormatInstagramPost)
	req.AssetIDs = []string{"asset-a"}
	req.Preferences = []domain.TemplatePreference{{Layout: domain.ArchetypeHero}}
	resp, err := svc.GenerateLayouts(context.Background(), "user-1", req)
	if err != nil {
		t.Fatalf("GenerateLayouts() error = %v", err)
	}
	layout := resp.Layouts[0]
	staleScore := layout.Compliance
	stalePrediction := layout.PerformancePrediction

	idx := 0
	newContent := "Fresh headline"
	updated, err := svc.UpdateLayout(context.Background(), "user-1", layout.ID, &domain.UpdateLayoutRequest{
		Elements: []domain.ElementUpdate{{TextIndex: &idx, Content: &newContent}},
	})
	if err != nil {
		t.Fatalf("UpdateLayout() error = %v", err)
	}
	if !updated.Dirty {
		t.Error("edit did not mark the layout dirty")
	}
	if updated.Texts[0].Content != newContent {
		t.Errorf("content = %q, want %q", updated.Texts[0].Content, newContent)
	}
	// A burst of drag edits must stay cheap: scores keep their stale
	// values until Recompute settles them.
	if updated.Compliance != staleScore {
		t.Error("edit recomputed compliance instead of deferring")
	}
	if updated.PerformancePrediction != stalePrediction {
		t.Error("edit recomputed prediction instead of deferring")
	}
	if store.byID[layout.ID].Texts[0].Content != newContent {
		t.Error("update not persisted")
	}
}

func TestRecomputeSettlesDirtyLayout(t *testing.T) {
	assets := ownedAssets("user-1", "asset-a")
	svc, store := newTestService(t, assets)

	req := testRequest(domain.FormatInstagramPost)
	req.AssetIDs = []string{"asset-a"}
	req.Preferences = []domain.TemplatePreference{{Layout: domain.ArchetypeHero}}
	resp, err := svc.GenerateLayouts(context.Background(), "user-1", req)
	if err != nil {
		t.Fatalf("GenerateLayouts() error = %v", err)
	}
	layout := resp.Layouts[0]
	staleScore := layout.Compliance

	idx := 0
	size := 99
	if _, err := svc.UpdateLayout(context.Background(), "user-1", layout.ID, &domain.UpdateLayoutRequest{
		Elements: []domain.ElementUpdate{{TextIndex: &idx, FontSize: &size}},
	}); err != nil {
		t.Fatalf("UpdateLayout() error = %v", err)
	}

	settled, err := svc.Recompute(context.Background(), "user-1", layout.ID)
	if err != nil {
		t.Fatalf("Recompute() error = %v", err)
	}
	if settled.Dirty {
		t.Error("dirty flag not cleared after recompute")
	}
	if settled.Compliance == nil || settled.Compliance == staleScore {
		t.Error("recompute did not produce a fresh compliance score")
	}
	if store.byID[layout.ID].Dirty {
		t.Error("cleared flag not persisted")
	}

	// Recomputing a clean layout is a no-op.
	again, err := svc.Recompute(context.Background(), "user-1", layout.ID)
	if err != nil {
		t.Fatalf("Recompute() on clean layout error = %v", err)
	}
	if again.Compliance != settled.Compliance {
		t.Error("clean recompute rescored anyway")
	}
}

func TestUpdateLayoutRejectsBadIndex(t *testing.T) {
	svc, store := newTestService(t, nil)
	store.byID["layout_1"] = &domain.LayoutVariation{ID: "layout_1", UserID: "user-1"}

	idx := 5
	_, err := svc.UpdateLayout(context.Background(), "user-1", "layout_1", &domain.UpdateLayoutRequest{
		Elements: []domain.ElementUpdate{{ImageIndex: &idx}},
	})
	if ae := apperr.AsAppError(err); ae == nil || ae.Code != apperr.CodeValidationFailed {
		t.Errorf("error = %v, want validation failure", err)
	}
}

func TestApplyColorSchemeRecolors(t *testing.T) {
	assets := ownedAssets("user-1", "asset-a")
	svc, _ := newTestService(t, assets)

	req := testRequest(domain.FormatInstagramPost)
	req.Preferences = []domain.TemplatePreference{{Layout: domain.ArchetypeSplit}}
	resp, err := svc.GenerateLayouts(context.Background(), "user-1", req)
	if err != nil {
		t.Fatalf("GenerateLayouts() error = %v", err)
	}
	layout := resp.Layouts[0]

	updated, err := svc.ApplyColorScheme(context.Background(), "user-1", layout.ID, domain.SchemeMonochromatic)
	if err != nil {
		t.Fatalf("ApplyColorScheme() error = %v", err)
	}
	if updated.Scheme.Kind != domain.SchemeMonochromatic {
		t.Errorf("scheme kind = %s", updated.Scheme.Kind)
	}
	if !updated.Dirty {
		t.Error("scheme swap did not mark the layout dirty")
	}

	_, err = svc.ApplyColorScheme(context.Background(), "user-1", layout.ID, "neon")
	if ae := apperr.AsAppError(err); ae == nil || ae.Code != apperr.CodeValidationFailed {
		t.Errorf("unknown scheme error = %v, want validation failure", err)
	}
}

func TestReassignAssets(t *testing.T) {
	assets := ownedAssets("user-1", "asset-a", "asset-b", "asset-c")
	svc, _ := newTestService(t, assets)

	req := testRequest(domain.FormatInstagramPost)
	req.AssetIDs = []string{"asset-a"}
	req.Preferences = []domain.TemplatePreference{{Layout: domain.ArchetypeMagazine}}
	resp, err := svc.GenerateLayouts(context.Background(), "user-1", req)
	if err != nil {
		t.Fatalf("GenerateLayouts() error = %v", err)
	}
	layout := resp.Layouts[0]

	updated, err := svc.ReassignAssets(context.Background(), "user-1", layout.ID, []string{"asset-b", "asset-c"})
	if err != nil {
		t.Fatalf("ReassignAssets() error = %v", err)
	}
	if updated.Images[0].AssetID != "asset-b" || updated.Images[1].AssetID != "asset-c" {
		t.Errorf("slots = %s/%s, want asset-b/asset-c",
			updated.Images[0].AssetID, updated.Images[1].AssetID)
	}

	// Shrinking the list puts placeholders back
	updated, err = svc.ReassignAssets(context.Background(), "user-1", layout.ID, []string{"asset-a"})
	if err != nil {
		t.Fatalf("ReassignAssets() error = %v", err)
	}
	if updated.Images[0].AssetID != "asset-a" {
		t.Errorf("first slot = %s, want asset-a", updated.Images[0].AssetID)
	}
	if !updated.Images[1].IsPlaceholder() {
		t.Error("second slot should fall back to a placeholder")
	}

	_, err = svc.ReassignAssets(context.Background(), "user-1", layout.ID, []string{"ghost"})
	if ae := apperr.AsAppError(err); ae == nil || ae.Code != apperr.CodeNotFound {
		t.Errorf("unknown asset error = %v, want not found", err)
	}
}

func TestLayoutOwnership(t *testing.T) {
	svc, store := newTestService(t, nil)
	store.byID["layout_1"] = &domain.LayoutVariation{ID: "layout_1", UserID: "owner"}

	if _, err := svc.GetLayout(context.Background(), "intruder", "layout_1"); err == nil {
		t.Error("foreign read should fail")
	}
	if err := svc.DeleteLayout(context.Background(), "intruder", "layout_1"); err == nil {
		t.Error("foreign delete should fail")
	}
	if _, ok := store.byID["layout_1"]; !ok {
		t.Error("layout deleted despite ownership failure")
	}

	if err := svc.DeleteLayout(context.Background(), "owner", "layout_1"); err != nil {
		t.Errorf("owner delete error = %v", err)
	}
	if _, ok := store.byID["layout_1"]; ok {
		t.Error("layout still present after delete")
	}
}
