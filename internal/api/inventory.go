package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"fridgetrack/internal/inventory"
	"fridgetrack/internal/models"
	"fridgetrack/internal/quantity"
)

// ItemInput is the wire shape for adding items. Quantity accepts either a
// number or a string like "200g"; in the latter case the unit is parsed
// out of the string unless one is given explicitly.
type ItemInput struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Category  string          `json:"category"`
	Quantity  json.RawMessage `json:"quantity"`
	Unit      string          `json:"unit"`
	Expiry    string          `json:"expiry"`
	Icon      string          `json:"icon"`
	ClaimedBy []string        `json:"claimedBy"`
	Recipes   []string        `json:"recipes"`
}

func (in ItemInput) toItem() (models.InventoryItem, error) {
	if strings.TrimSpace(in.Name) == "" {
		return models.InventoryItem{}, errors.New("item requires a name")
	}

	var raw interface{}
	if len(in.Quantity) > 0 {
		if err := json.Unmarshal(in.Quantity, &raw); err != nil {
			return models.InventoryItem{}, errors.New("quantity must be a number or a string")
		}
	}
	qty, unit := quantity.Parse(raw)
	if in.Unit != "" {
		unit = quantity.NormalizeUnit(in.Unit)
	}

	item := models.InventoryItem{
		ID:        in.ID,
		Name:      in.Name,
		Category:  models.NormalizeCategory(in.Category),
		Quantity:  qty,
		Unit:      unit,
		Icon:      in.Icon,
		ClaimedBy: in.ClaimedBy,
		Recipes:   in.Recipes,
	}
	if in.Expiry != "" {
		t, err := parseExpiry(in.Expiry)
		if err != nil {
			return models.InventoryItem{}, err
		}
		item.Expiry = &t
	}
	return item, nil
}

func parseExpiry(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, errors.New("expiry must be an ISO-8601 date")
	}
	return t, nil
}

func (s *Server) handleListInventory(c *gin.Context) {
	items, err := s.store.Items()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch inventory: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, items)
}

// handleAddItems accepts a single item or an array of items and merges
// them into the inventory by name.
func (s *Server) handleAddItems(c *gin.Context) {
	raw, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	var inputs []ItemInput
	trimmed := strings.TrimSpace(string(raw))
	if strings.HasPrefix(trimmed, "[") {
		if err := json.Unmarshal(raw, &inputs); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload: " + err.Error()})
			return
		}
	} else {
		var single ItemInput
		if err := json.Unmarshal(raw, &single); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload: " + err.Error()})
			return
		}
		inputs = []ItemInput{single}
	}

	items := make([]models.InventoryItem, 0, len(inputs))
	for _, in := range inputs {
		item, err := in.toItem()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		items = append(items, item)
	}

	result, err := s.store.AddOrMerge(items...)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to add items: " + err.Error()})
		return
	}
	c.JSON(http.StatusCreated, result)
}

func (s *Server) handleSubtractQuantity(c *gin.Context) {
	var req struct {
		Amount float64 `json:"amount" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload: " + err.Error()})
		return
	}

	if err := s.store.UpdateQuantity(c.Param("id"), req.Amount); err != nil {
		s.respondStoreError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Quantity updated"})
}

func (s *Server) handleSetQuantity(c *gin.Context) {
	var req struct {
		Quantity float64 `json:"quantity"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload: " + err.Error()})
		return
	}

	if err := s.store.SetQuantity(c.Param("id"), req.Quantity); err != nil {
		s.respondStoreError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Quantity updated"})
}

func (s *Server) handleRemoveItem(c *gin.Context) {
	if err := s.store.Remove(c.Param("id")); err != nil {
		s.respondStoreError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Item removed"})
}

func (s *Server) handleClaim(c *gin.Context) {
	var req struct {
		Name       string `json:"name" binding:"required"`
		MemberName string `json:"member_name" binding:"required"`
		Claim      *bool  `json:"claim"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload: " + err.Error()})
		return
	}

	claim := true
	if req.Claim != nil {
		claim = *req.Claim
	}
	if err := s.store.SetClaimed(req.Name, req.MemberName, claim); err != nil {
		s.respondStoreError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Claim updated"})
}

func (s *Server) handleListMembers(c *gin.Context) {
	members, err := s.store.Members()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch members: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, members)
}

func (s *Server) handleAddMember(c *gin.Context) {
	var req struct {
		MemberName string `json:"member_name" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload: " + err.Error()})
		return
	}

	member, err := s.store.AddMember(req.MemberName)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to add member: " + err.Error()})
		return
	}
	c.JSON(http.StatusCreated, member)
}

func (s *Server) handleRemoveMember(c *gin.Context) {
	if err := s.store.RemoveMember(models.FlexID(c.Param("id"))); err != nil {
		s.respondStoreError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Member removed"})
}

func (s *Server) handleListLogs(c *gin.Context) {
	logs, err := s.store.Logs()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch logs: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, logs)
}

func (s *Server) respondStoreError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, inventory.ErrItemNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Item not found"})
	case errors.Is(err, inventory.ErrMemberNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Member not found"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
