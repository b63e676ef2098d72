package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/atelier-labs/tailor-orders-api/config"
	"github.com/atelier-labs/tailor-orders-api/models"
)

// Reference object types the AI measurement service can scale against.
const (
	AIReferenceA4   = "a4"
	AIReferenceCard = "card"
	AIReferenceNone = "none"
)

// AIMeasureRequest is the payload sent to the external measurement service.
type AIMeasureRequest struct {
	FrontImageB64 string   `json:"front_image_b64"`
	SideImageB64  string   `json:"side_image_b64"`
	ReferenceType string   `json:"reference_type"`
	HeightCM      *float64 `json:"height_cm,omitempty"`
}

// AIMeasurements is the measurement set returned by the service.
type AIMeasurements struct {
	Length        float64 `json:"length"`
	ShoulderWidth float64 `json:"shoulder_width"`
	SleeveLength  float64 `json:"sleeve_length"`
	Chest         float64 `json:"chest"`
	Waist         float64 `json:"waist"`
	Hip           float64 `json:"hip"`
	Neck          float64 `json:"neck"`
	BottomWidth   float64 `json:"bottom_width"`
}

// AIMeasureResult is the full response: measurements plus confidence.
type AIMeasureResult struct {
	Measurements AIMeasurements `json:"measurements"`
	Confidence   float64        `json:"confidence"`
}

// AIMeasureService calls the external image-measurement service and applies
// its results to draft orders on explicit confirmation.
type AIMeasureService struct {
	baseURL    string
	token      string
	httpClient *http.Client
	db         *gorm.DB
}

// NewAIMeasureService creates an AI measurement service instance
func NewAIMeasureService(cfg *config.Config, db *gorm.DB) *AIMeasureService {
	return &AIMeasureService{
		baseURL: cfg.AIServiceURL,
		token:   cfg.AIServiceToken,
		db:      db,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Compute sends the two images to the measurement service and returns the
// advisory result. Nothing is written; applying is a separate call.
func (s *AIMeasureService) Compute(req AIMeasureRequest) (*AIMeasureResult, error) {
	if s.baseURL == "" {
		return nil, &RuleError{Code: CodeExternalService, Message: "AI measurement service is not configured"}
	}
	if req.FrontImageB64 == "" || req.SideImageB64 == "" {
		return nil, validation("Both a front and a side image are required")
	}
	switch req.ReferenceType {
	case AIReferenceA4, AIReferenceCard, AIReferenceNone:
	default:
		return nil, validation(fmt.Sprintf("Unknown reference type %q", req.ReferenceType))
	}

	// If the base URL already includes a protocol (for testing), use it
	// as-is
	var url string
	if strings.HasPrefix(s.baseURL, "http://") || strings.HasPrefix(s.baseURL, "https://") {
		url = fmt.Sprintf("%s/v1/measurements/from_images", strings.TrimRight(s.baseURL, "/"))
	} else {
		url = fmt.Sprintf("https://%s/v1/measurements/from_images", s.baseURL)
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	httpReq, err := http.NewRequest("POST", url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+s.token)

	resp, err := s.httpClient.Do(httpReq)
	if err != nil {
		return nil, &RuleError{Code: CodeExternalService, Message: fmt.Sprintf("Measurement service unreachable: %v", err)}
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, &RuleError{
			Code:    CodeExternalService,
			Message: fmt.Sprintf("Measurement service returned status %d: %s", resp.StatusCode, string(respBody)),
		}
	}

	var result AIMeasureResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, &RuleError{Code: CodeExternalService, Message: "Measurement service returned an unreadable response"}
	}
	return &result, nil
}

// Apply writes a computed measurement set into a draft order and records an
// AI-flagged snapshot. Staff roles only; locked or non-draft orders are
// rejected.
func (s *AIMeasureService) Apply(actor models.Actor, orderID uint, result *AIMeasureResult) (*models.TailorOrder, error) {
	if !actor.HasAnyRole(models.RoleSales, models.RoleStock, models.RoleAdmin) {
		return nil, forbidden("Only staff can apply AI measurements")
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		order, err := loadOrderTx(tx, orderID)
		if err != nil {
			return err
		}
		if order.MeasurementsLocked {
			return &RuleError{Code: CodeMeasurementsLocked, Message: "Measurements are locked once the order is confirmed"}
		}
		if order.Status != models.StatusDraft {
			return validation("AI measurements can only be applied to draft orders")
		}

		m := result.Measurements
		order.Length = m.Length
		order.ShoulderWidth = m.ShoulderWidth
		order.SleeveLength = m.SleeveLength
		order.Chest = m.Chest
		order.Waist = m.Waist
		order.Hip = m.Hip
		order.Neck = m.Neck
		order.BottomWidth = m.BottomWidth
		if err := RecomputeFabricQty(order); err != nil {
			return err
		}
		if err := tx.Save(order).Error; err != nil {
			return err
		}

		confidence := result.Confidence
		snapshot := models.MeasurementSnapshot{
			OrderID:         order.ID,
			CustomerID:      order.CustomerID,
			GarmentTemplate: order.GarmentTemplate,
			Length:          m.Length,
			ShoulderWidth:   m.ShoulderWidth,
			SleeveLength:    m.SleeveLength,
			Chest:           m.Chest,
			Waist:           m.Waist,
			Hip:             m.Hip,
			Neck:            m.Neck,
			BottomWidth:     m.BottomWidth,
			AIMeasured:      true,
			AIConfidence:    &confidence,
		}
		return tx.Create(&snapshot).Error
	})
	if err != nil {
		return nil, err
	}

	var order models.TailorOrder
	if err := s.db.Preload("Customer").First(&order, orderID).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

// LatestSnapshot returns the most recent measurement snapshot for a
// customer and template, used to prefill new draft orders.
func (s *AIMeasureService) LatestSnapshot(customerID uint, template string) (*models.MeasurementSnapshot, error) {
	var snapshot models.MeasurementSnapshot
	err := s.db.Where("customer_id = ? AND garment_template = ?", customerID, template).
		Order("id desc").First(&snapshot).Error
	if err != nil {
		return nil, notFound("No measurement snapshot found for this customer and template")
	}
	return &snapshot, nil
}
