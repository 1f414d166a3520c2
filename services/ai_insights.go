package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"

	"github.com/uddalak2005/AgroSure/models"
)

// AIInsightsService wraps the remote inference service (FLASK_URL) behind
// uniform error handling: any network failure or an "error" key in the JSON
// response is normalized into a payload whose Error field is set. Callers
// treat that as a sentinel, not a Go error.
type AIInsightsService struct {
	Client *http.Client
}

func NewAIInsightsService() *AIInsightsService {
	return &AIInsightsService{Client: http.DefaultClient}
}

// AI is the process-wide gateway instance.
var AI = NewAIInsightsService()

// YieldAmount mirrors the service's predicted_yield object. Every field is
// optional: the gateway contract is free-form JSON with no schema guarantee.
type YieldAmount struct {
	KgPerHa   *float64 `json:"kg_per_ha"`
	KgPerAcre *float64 `json:"kg_per_acre"`
}

type CropAnalysis struct {
	Crop           string       `json:"crop"`
	PredictedYield *YieldAmount `json:"predicted_yield"`
	YieldCategory  string       `json:"yield_category"`
}

type SoilHealth struct {
	Score    *float64 `json:"score"`
	Category string   `json:"category"`
}

type PriorityCrop struct {
	Crop           string       `json:"crop"`
	PredictedYield *YieldAmount `json:"predicted_yield"`
	YieldCategory  string       `json:"yield_category"`
	ClimateScore   *float64     `json:"climate_score"`
}

type YieldPrediction struct {
	InputCropAnalysis *CropAnalysis  `json:"input_crop_analysis"`
	SoilHealth        *SoilHealth    `json:"soil_health"`
	ClimateScore      *float64       `json:"climate_score"`
	CropPriorityList  []PriorityCrop `json:"crop_priority_list"`
	Error             string         `json:"error,omitempty"`
}

type ExifMetadata struct {
	Address           string   `json:"address"`
	DeviceModel       string   `json:"device_model"`
	Timestamp         string   `json:"timestamp"`
	GPSLatitude       *float64 `json:"gps_latitude"`
	GPSLongitude      *float64 `json:"gps_longitude"`
	AuthenticityScore *float64 `json:"authenticity_score"`
	SuspiciousReasons []string `json:"suspicious_reasons"`
}

type DamageDetection struct {
	Prediction string   `json:"prediction"` // "damaged" or "non_damaged"
	Confidence *float64 `json:"confidence"`
	Model      string   `json:"model"`
	Status     string   `json:"status"`
}

type CropTypePrediction struct {
	PredictedClass    string   `json:"predicted_class"`
	ConfidencePercent *float64 `json:"confidence_percent"`
	Status            string   `json:"status"`
}

// DocScorePayload bundles the three independent claim analyses.
type DocScorePayload struct {
	Metadata        *ExifMetadata       `json:"metadata"`
	DamageDetection *DamageDetection    `json:"damageDetection"`
	CropType        *CropTypePrediction `json:"cropType"`
	Error           string              `json:"error,omitempty"`
}

func flaskURL() string {
	return os.Getenv("FLASK_URL")
}

func (s *AIInsightsService) postJSON(ctx context.Context, path string, payload interface{}, out interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", flaskURL()+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := s.Client.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	raw, err := io.ReadAll(res.Body)
	if err != nil {
		return err
	}

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		// Upstream errors arrive either as {"error": "..."} or plain text.
		var upstream struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(raw, &upstream) == nil && upstream.Error != "" {
			return fmt.Errorf("%s", upstream.Error)
		}
		return fmt.Errorf("ai service status %d", res.StatusCode)
	}

	return json.Unmarshal(raw, out)
}

// PredictCropScore asks the yield-scoring endpoint for a full crop analysis.
func (s *AIInsightsService) PredictCropScore(ctx context.Context, cropName string, locationLat, locationLong float64) *YieldPrediction {
	var out YieldPrediction
	err := s.postJSON(ctx, "/predictForCrop", map[string]interface{}{
		"cropName":     cropName,
		"locationLat":  locationLat,
		"locationLong": locationLong,
	}, &out)
	if err != nil {
		log.Println("❌ Error in AI prediction:", err)
		return &YieldPrediction{Error: err.Error()}
	}
	return &out
}

// GetDocScore runs the three claim analyses sequentially: damage detection on
// the damage image, EXIF authenticity on the field image, crop-type
// classification on the crop image. The calls share no transaction; the first
// failure flags the whole payload.
func (s *AIInsightsService) GetDocScore(ctx context.Context, damageImage, cropImage, fieldImage models.FileRef) *DocScorePayload {
	var damage DamageDetection
	if err := s.postJSON(ctx, "/api/damage_detection", map[string]interface{}{"damageImage": damageImage}, &damage); err != nil {
		log.Println("❌ Error in damage detection:", err)
		return &DocScorePayload{Error: err.Error()}
	}

	var metadata ExifMetadata
	if err := s.postJSON(ctx, "/api/exif_metadata", map[string]interface{}{"fieldImage": fieldImage}, &metadata); err != nil {
		log.Println("❌ Error in exif metadata analysis:", err)
		return &DocScorePayload{Error: err.Error()}
	}

	var cropType CropTypePrediction
	if err := s.postJSON(ctx, "/api/crop_type", map[string]interface{}{"cropImage": cropImage}, &cropType); err != nil {
		log.Println("❌ Error in crop type classification:", err)
		return &DocScorePayload{Error: err.Error()}
	}

	return &DocScorePayload{
		Metadata:        &metadata,
		DamageDetection: &damage,
		CropType:        &cropType,
	}
}
