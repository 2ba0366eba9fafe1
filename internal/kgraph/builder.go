package kgraph

import (
	"fmt"
	"log"

	"github.com/lichen18/navi-profile-go/internal/models"
	"github.com/lichen18/navi-profile-go/internal/timeutil"
)

// BuildFromTrips ingests the ordered trip list. Every trip contributes fresh
// start/destination location nodes and start/end time nodes. Locations are
// not deduplicated across trips; the prediction aggregates count per-visit
// nodes. The call is append-only and not idempotent; build each graph on a
// fresh instance.
func (g *Graph) BuildFromTrips(trips []models.Trip) {
	prevLocID := ""
	prevEndTime := ""
	for i, trip := range trips {
		if trip.StartLocation == "" || trip.POILocation == "" ||
			trip.StartTime == "" || trip.EndTime == "" || trip.POI == "" {
			log.Printf("[KGraph] Skipping trip %d: missing required fields", i)
			continue
		}

		startLocID := fmt.Sprintf("loc_start_%d", i)
		g.addNode(Node{
			ID:    startLocID,
			Kind:  NodeLocation,
			Label: fmt.Sprintf("origin %d", i),
			Attrs: map[string]any{"coordinates": trip.StartLocation, "role": "start"},
		})

		poiLocID := fmt.Sprintf("loc_poi_%d", i)
		g.addNode(Node{
			ID:    poiLocID,
			Kind:  NodeLocation,
			Label: trip.POI,
			Attrs: map[string]any{"coordinates": trip.POILocation, "role": "poi", "poi_type": trip.POIType},
		})

		startTimeID := fmt.Sprintf("time_start_%d", i)
		g.addTimeNode(startTimeID, trip.StartTime)
		endTimeID := fmt.Sprintf("time_end_%d", i)
		g.addTimeNode(endTimeID, trip.EndTime)

		durationMinutes, err := timeutil.DiffSeconds(trip.StartTime, trip.EndTime)
		if err != nil {
			log.Printf("[KGraph] Trip %d has no computable duration: %v", i, err)
			continue
		}
		durationMinutes /= 60

		eventID := fmt.Sprintf("event_%d", i)
		g.addNode(Node{
			ID:    eventID,
			Kind:  NodeEvent,
			Label: fmt.Sprintf("navigation event %d", i),
			Attrs: map[string]any{"duration_minutes": durationMinutes},
		})
		g.addEdge(Edge{Source: g.userNodeID(), Target: eventID, Relation: RelInitiatedBy})
		g.addEdge(Edge{Source: eventID, Target: startLocID, Relation: RelDepartsFrom})
		g.addEdge(Edge{Source: eventID, Target: poiLocID, Relation: RelArrivesAt})
		g.addEdge(Edge{Source: eventID, Target: startTimeID, Relation: RelStartedAt})
		g.addEdge(Edge{Source: eventID, Target: endTimeID, Relation: RelEndedAt})

		if prevLocID != "" && prevEndTime != "" {
			interval, err := timeutil.DiffSeconds(prevEndTime, trip.StartTime)
			if err != nil {
				log.Printf("[KGraph] No interval between trip %d and its predecessor: %v", i, err)
			} else {
				g.addEdge(Edge{
					Source:   prevLocID,
					Target:   startLocID,
					Relation: RelFollowedBy,
					Weight:   1.0,
					Attrs:    map[string]any{"interval_minutes": interval / 60},
				})
			}
		}

		prevLocID = poiLocID
		prevEndTime = trip.EndTime
	}
}

// addTimeNode creates a time node. A timestamp that fails to parse still
// produces a node, flagged invalid, so one bad record cannot blind the edge
// wiring of its trip.
func (g *Graph) addTimeNode(id, timestamp string) {
	t, err := timeutil.ParseTimestamp(timestamp)
	if err != nil {
		log.Printf("[KGraph] Invalid timestamp %q: %v", timestamp, err)
		g.addNode(Node{
			ID:    id,
			Kind:  NodeTime,
			Label: "invalid time",
			Attrs: map[string]any{"invalid_timestamp": true},
		})
		return
	}
	g.addNode(Node{
		ID:    id,
		Kind:  NodeTime,
		Label: timestamp,
		Attrs: map[string]any{
			"hour":    t.Hour(),
			"weekday": int(t.Weekday()),
			"date":    t.Format("2006-01-02"),
		},
	})
}
