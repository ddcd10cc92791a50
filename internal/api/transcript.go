package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"fridgetrack/internal/inventory"
	"fridgetrack/internal/models"
	"fridgetrack/internal/validation"
)

// ParseTranscriptRequest carries one transcript plus the client's view of
// the household state. When the client omits the snapshot entirely the
// server validates against its own live store.
type ParseTranscriptRequest struct {
	Transcript       string                   `json:"transcript" binding:"required"`
	SelectedMemberID models.FlexID            `json:"selectedMemberId"`
	Inventory        []models.InventoryEntry  `json:"inventory"`
	MembersItems     []models.MemberItem      `json:"membersItems"`
	HouseholdMembers []models.HouseholdMember `json:"householdMembers"`
}

// ApplyTranscriptRequest validates a candidate batch against the live
// store and applies it atomically on success.
type ApplyTranscriptRequest struct {
	SelectedMemberID models.FlexID          `json:"selectedMemberId"`
	Items            []models.CandidateItem `json:"items" binding:"required"`
}

func (s *Server) validationOptions() validation.Options {
	return validation.Options{Mode: s.opts.OwnershipMode}
}

func (s *Server) snapshotFrom(req ParseTranscriptRequest) (validation.Snapshot, error) {
	if len(req.Inventory) == 0 && len(req.MembersItems) == 0 && len(req.HouseholdMembers) == 0 && s.store != nil {
		entries, ownership, members, err := s.store.Snapshot()
		if err != nil {
			return validation.Snapshot{}, err
		}
		return validation.Snapshot{Inventory: entries, MembersItems: ownership, Household: members}, nil
	}
	return validation.Snapshot{
		Inventory:    req.Inventory,
		MembersItems: req.MembersItems,
		Household:    req.HouseholdMembers,
	}, nil
}

func (s *Server) handleParseTranscript(c *gin.Context) {
	var req ParseTranscriptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload: " + err.Error()})
		return
	}

	snap, err := s.snapshotFrom(req)
	if err != nil {
		s.respondSystemError(c, err)
		return
	}

	batch, err := s.extractor.Extract(c.Request.Context(), req.Transcript, inventory.Names(snap.Inventory))
	if err != nil {
		s.log.Error().Err(err).Msg("transcript extraction failed")
		s.metrics.ExtractorFailures.Inc()
		s.respondSystemError(c, err)
		return
	}

	result := validation.ValidateTranscript(batch, req.SelectedMemberID, snap, s.validationOptions())
	s.recordValidation(result)

	c.JSON(http.StatusOK, gin.H{"log": []models.ValidationResult{result}})
}

func (s *Server) handleApplyTranscript(c *gin.Context) {
	var req ApplyTranscriptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload: " + err.Error()})
		return
	}

	entries, ownership, members, err := s.store.Snapshot()
	if err != nil {
		s.respondSystemError(c, err)
		return
	}
	snap := validation.Snapshot{Inventory: entries, MembersItems: ownership, Household: members}

	result := validation.ValidateTranscript(models.CandidateBatch{Items: req.Items}, req.SelectedMemberID, snap, s.validationOptions())
	s.recordValidation(result)

	if result.Status == models.StatusSuccess {
		if err := s.store.ApplyValidated(result.Data); err != nil {
			s.respondSystemError(c, err)
			return
		}
		s.metrics.AppliedRecordsTotal.Add(float64(len(result.Data)))
	}

	c.JSON(http.StatusOK, gin.H{"log": []models.ValidationResult{result}})
}

func (s *Server) recordValidation(result models.ValidationResult) {
	s.metrics.TranscriptsTotal.WithLabelValues(result.Status).Inc()
	s.metrics.ValidationErrors.Add(float64(len(result.Errors)))
	s.monitor.RecordValidation(result.Status, len(result.Errors), len(result.Warnings))
}

// respondSystemError reports an upstream failure in the same log-wrapped
// shape the clients consume for validation results.
func (s *Server) respondSystemError(c *gin.Context, err error) {
	c.JSON(http.StatusInternalServerError, gin.H{
		"error":   "Failed to parse transcript",
		"details": err.Error(),
		"log": []models.ValidationResult{{
			Status: models.StatusUnsuccessful,
			Errors: []models.ValidationError{{
				Check:   "System error",
				Message: "Internal server error occurred while processing transcript",
			}},
			Warnings: []string{},
		}},
	})
}
