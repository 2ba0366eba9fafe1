package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/lichen18/navi-profile-go/internal/extractor"
	"github.com/lichen18/navi-profile-go/internal/features"
	"github.com/lichen18/navi-profile-go/internal/kgraph"
	"github.com/lichen18/navi-profile-go/internal/models"
	"github.com/lichen18/navi-profile-go/internal/oracle"
	"github.com/lichen18/navi-profile-go/internal/repository"
	"github.com/lichen18/navi-profile-go/internal/timeutil"
)

// ProfileResult bundles everything the pipeline derives from one uploaded
// telemetry file.
type ProfileResult struct {
	ID        string                   `json:"id"`
	Profile   *models.NaviProfile      `json:"profile"`
	Features  features.FeatureLabelMap `json:"features"`
	Graph     *kgraph.Graph            `json:"-"`
	Persona   features.Persona         `json:"persona"`
	CreatedAt time.Time                `json:"created_at"`
}

// ProfileService runs the extraction/classification/graph pipeline. Results
// live in memory for the query endpoints and are mirrored to the repository
// so they survive a restart.
type ProfileService struct {
	extractor *extractor.Extractor
	engine    *features.Engine
	text      oracle.TextOracle
	repo      *repository.ProfileRepository

	mu      sync.RWMutex
	results map[string]*ProfileResult
}

// NewProfileService wires the pipeline. text may be nil; home and workplace
// then stay unknown. repo may be nil for an in-memory only service.
func NewProfileService(ex *extractor.Extractor, engine *features.Engine, text oracle.TextOracle, repo *repository.ProfileRepository) *ProfileService {
	return &ProfileService{
		extractor: ex,
		engine:    engine,
		text:      text,
		repo:      repo,
		results:   make(map[string]*ProfileResult),
	}
}

// persistedResult is the repository document for one result. The graph is
// stored in its export form.
type persistedResult struct {
	Profile  *models.NaviProfile      `json:"profile"`
	Features features.FeatureLabelMap `json:"features"`
	Graph    kgraph.ExportDoc         `json:"graph"`
	Persona  features.Persona         `json:"persona"`
}

// ProcessRows runs the full pipeline over one vehicle's ordered event rows
// and stores the result under a fresh ID. The pipeline is best-effort
// throughout; the only error is an empty extraction.
func (s *ProfileService) ProcessRows(ctx context.Context, vin string, rows []models.RawEventRow) (*ProfileResult, error) {
	trips := s.extractor.Extract(ctx, rows)
	if len(trips) == 0 {
		return nil, fmt.Errorf("no navigation trips found in %d rows", len(rows))
	}

	profile := &models.NaviProfile{VIN: vin, Trips: trips}
	profile.Home = s.resolvePlace(ctx, profile, homePrompt)
	profile.Workplace = s.resolvePlace(ctx, profile, workplacePrompt)

	graph := kgraph.New(vin)
	graph.BuildFromTrips(trips)

	result := &ProfileResult{
		ID:        uuid.NewString(),
		Profile:   profile,
		Features:  s.engine.Classify(ctx, profile),
		Graph:     graph,
		Persona:   features.BuildPersona(profile),
		CreatedAt: time.Now(),
	}

	s.mu.Lock()
	s.results[result.ID] = result
	s.mu.Unlock()
	s.persist(result)

	log.Printf("[ProfileService] Built profile %s: %d trips, home=%q workplace=%q",
		result.ID, len(trips), profile.Home, profile.Workplace)
	return result, nil
}

// persist mirrors a result to the repository. Failures are logged and
// swallowed; the in-memory copy keeps serving.
func (s *ProfileService) persist(result *ProfileResult) {
	if s.repo == nil {
		return
	}
	doc, err := json.Marshal(persistedResult{
		Profile:  result.Profile,
		Features: result.Features,
		Graph:    result.Graph.Export(),
		Persona:  result.Persona,
	})
	if err != nil {
		log.Printf("[ProfileService] Failed to encode profile %s: %v", result.ID, err)
		return
	}
	err = s.repo.Save(repository.ProfileRecord{
		ID:        result.ID,
		VIN:       result.Profile.VIN,
		CreatedAt: result.CreatedAt,
		Doc:       doc,
	})
	if err != nil {
		log.Printf("[ProfileService] %v", err)
	}
}

// Get returns a stored result, falling back to the repository for results
// built by a previous run.
func (s *ProfileService) Get(id string) (*ProfileResult, bool) {
	s.mu.RLock()
	r, ok := s.results[id]
	s.mu.RUnlock()
	if ok || s.repo == nil {
		return r, ok
	}

	rec, err := s.repo.Get(id)
	if err != nil {
		log.Printf("[ProfileService] %v", err)
		return nil, false
	}
	if rec == nil {
		return nil, false
	}
	var doc persistedResult
	if err := json.Unmarshal(rec.Doc, &doc); err != nil {
		log.Printf("[ProfileService] Failed to decode profile %s: %v", id, err)
		return nil, false
	}
	result := &ProfileResult{
		ID:        rec.ID,
		Profile:   doc.Profile,
		Features:  doc.Features,
		Graph:     kgraph.FromExport(doc.Graph),
		Persona:   doc.Persona,
		CreatedAt: rec.CreatedAt,
	}

	s.mu.Lock()
	s.results[id] = result
	s.mu.Unlock()
	return result, true
}

// List returns all stored result IDs, including persisted ones.
func (s *ProfileService) List() []string {
	seen := make(map[string]bool)
	var ids []string

	if s.repo != nil {
		stored, err := s.repo.ListIDs()
		if err != nil {
			log.Printf("[ProfileService] %v", err)
		}
		for _, id := range stored {
			seen[id] = true
			ids = append(ids, id)
		}
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	for id := range s.results {
		if !seen[id] {
			ids = append(ids, id)
		}
	}
	return ids
}

const homePrompt = `Analyze the input list of visited places with their types and decide
which place (the poi field) is the user's home. Answer with exactly that place name.
If the home cannot be determined, answer: unable to determine home`

const workplacePrompt = `Analyze the input list of visited places with their types and decide
which place (the poi field) is the user's workplace. Answer with exactly that place name.
If the workplace cannot be determined, answer: unable to determine workplace`

// resolvePlace asks the text oracle to pick one of the profile's POIs. The
// response is free text; it counts only if a known POI name appears in it,
// anything else degrades to the unknown sentinel.
func (s *ProfileService) resolvePlace(ctx context.Context, profile *models.NaviProfile, prompt string) string {
	if s.text == nil {
		return features.SentinelUnknown
	}
	input := describePOIs(profile)
	response, err := s.text.Classify(ctx, input, prompt)
	if err != nil {
		log.Printf("[ProfileService] Place resolution failed: %v", err)
		return features.SentinelUnknown
	}
	response = strings.TrimSpace(response)
	for _, name := range profile.DistinctPOINames() {
		if name == response || strings.Contains(response, name) {
			return name
		}
	}
	return features.SentinelUnknown
}

// describePOIs renders the trip destinations with their types as oracle
// input.
func describePOIs(profile *models.NaviProfile) string {
	var b strings.Builder
	for _, t := range profile.Trips {
		fmt.Fprintf(&b, "{poi: %q, type: %q, start_time: %q}\n", t.POI, t.POIType, t.StartTime)
	}
	return b.String()
}

// TimelineEntry is one trip prepared for timeline rendering by the
// presentation layer.
type TimelineEntry struct {
	POI             string  `json:"poi"`
	POIType         string  `json:"poi_type"`
	StartLocation   string  `json:"start_location"`
	POILocation     string  `json:"poi_location"`
	StartTime       string  `json:"start_time"`
	EndTime         string  `json:"end_time"`
	DurationMinutes float64 `json:"duration_minutes"`
}

// Timeline flattens a profile's trips into timeline entries with computed
// durations. Trips with unparseable timestamps carry a zero duration.
func Timeline(profile *models.NaviProfile) []TimelineEntry {
	entries := make([]TimelineEntry, 0, len(profile.Trips))
	for _, t := range profile.Trips {
		var minutes float64
		if seconds, err := timeutil.DiffSeconds(t.StartTime, t.EndTime); err == nil {
			minutes = seconds / 60
		}
		entries = append(entries, TimelineEntry{
			POI:             t.POI,
			POIType:         t.POIType,
			StartLocation:   t.StartLocation,
			POILocation:     t.POILocation,
			StartTime:       t.StartTime,
			EndTime:         t.EndTime,
			DurationMinutes: minutes,
		})
	}
	return entries
}
