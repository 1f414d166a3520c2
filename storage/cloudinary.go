package storage

import (
	"crypto/sha1"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/uddalak2005/AgroSure/models"
)

// Cloudinary configuration via environment variables
// CLOUDINARY_CLOUD_NAME, CLOUDINARY_API_KEY, CLOUDINARY_API_SECRET, CLOUDINARY_FOLDER (optional)
// CLOUDINARY_API_BASE / CLOUDINARY_DELIVERY_BASE override the endpoints (proxy or test routing).

func InitializeCloudinary() {
	if os.Getenv("CLOUDINARY_CLOUD_NAME") == "" || os.Getenv("CLOUDINARY_API_KEY") == "" || os.Getenv("CLOUDINARY_API_SECRET") == "" {
		fmt.Printf("WARNING: Cloudinary env vars missing, file uploads will fail\n")
		return
	}
	fmt.Printf("Cloudinary initialized - cloudName: %s, folder: %s\n",
		os.Getenv("CLOUDINARY_CLOUD_NAME"), os.Getenv("CLOUDINARY_FOLDER"))
}

func cloudinaryAPIBase() string {
	if base := os.Getenv("CLOUDINARY_API_BASE"); base != "" {
		return base
	}
	return "https://api.cloudinary.com/v1_1"
}

func cloudinaryDeliveryBase() string {
	if base := os.Getenv("CLOUDINARY_DELIVERY_BASE"); base != "" {
		return base
	}
	return "https://res.cloudinary.com"
}

// UploadFile pushes one multipart upload to Cloudinary as a signed upload and
// returns the stored file reference. The local bytes are never written to disk.
func UploadFile(fh *multipart.FileHeader, fieldName string, publicID string) (*models.FileRef, error) {
	cloudName := os.Getenv("CLOUDINARY_CLOUD_NAME")
	apiKey := os.Getenv("CLOUDINARY_API_KEY")
	apiSecret := os.Getenv("CLOUDINARY_API_SECRET")
	folder := os.Getenv("CLOUDINARY_FOLDER")

	if cloudName == "" || apiKey == "" || apiSecret == "" {
		return nil, fmt.Errorf("missing Cloudinary env vars")
	}

	src, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open upload %s: %v", fh.Filename, err)
	}
	defer src.Close()

	raw, err := io.ReadAll(src)
	if err != nil {
		return nil, fmt.Errorf("failed to read upload %s: %v", fh.Filename, err)
	}

	mime := fh.Header.Get("Content-Type")
	resourceType := "raw"
	if strings.HasPrefix(mime, "image/") {
		resourceType = "image"
	}
	if mime == "" {
		mime = "application/octet-stream"
	}

	finalPublicID := publicID
	if folder != "" {
		finalPublicID = folder + "/" + publicID
	}

	endpoint := cloudinaryAPIBase() + "/" + cloudName + "/" + resourceType + "/upload"

	// Build form data for signed upload
	form := url.Values{}
	form.Add("file", "data:"+mime+";base64,"+base64.StdEncoding.EncodeToString(raw))
	form.Add("api_key", apiKey)
	form.Add("public_id", finalPublicID)

	timestamp := fmt.Sprintf("%d", time.Now().Unix())
	form.Add("timestamp", timestamp)

	// Create signature string for Cloudinary (must be SHA1)
	signatureString := fmt.Sprintf("public_id=%s&timestamp=%s%s", finalPublicID, timestamp, apiSecret)
	signature := fmt.Sprintf("%x", sha1.Sum([]byte(signatureString)))
	form.Add("signature", signature)

	req, err := http.NewRequest("POST", endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create upload request: %v", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	res, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("upload request failed: %v", err)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read upload response: %v", err)
	}

	if res.StatusCode != 200 {
		fmt.Printf("ERROR: Cloudinary upload failed with status %d: %s\n", res.StatusCode, string(body))
		return nil, fmt.Errorf("cloudinary upload failed with status %d", res.StatusCode)
	}

	var cloudRes struct {
		PublicID  string `json:"public_id"`
		SecureURL string `json:"secure_url"`
		Error     struct {
			Message string `json:"message"`
		} `json:"error"`
	}

	if err := json.Unmarshal(body, &cloudRes); err != nil {
		return nil, fmt.Errorf("failed to parse upload response: %v", err)
	}

	if cloudRes.Error.Message != "" {
		return nil, fmt.Errorf("cloudinary error: %s", cloudRes.Error.Message)
	}

	storedID := cloudRes.PublicID
	if storedID == "" {
		storedID = finalPublicID
	}

	return &models.FileRef{
		PublicID:     storedID,
		FileType:     resourceType,
		OriginalName: fh.Filename,
		FieldName:    fieldName,
	}, nil
}

// SignedURL builds a short-lived authenticated delivery URL for a stored file.
// Retrieval never goes through a permanent public URL.
func SignedURL(ref models.FileRef, expiresIn int64) string {
	cloudName := os.Getenv("CLOUDINARY_CLOUD_NAME")
	apiSecret := os.Getenv("CLOUDINARY_API_SECRET")

	resourceType := ref.FileType
	if resourceType != "image" {
		resourceType = "raw"
	}

	expiresAt := time.Now().Unix() + expiresIn

	signatureString := fmt.Sprintf("expires_at=%d&public_id=%s%s", expiresAt, ref.PublicID, apiSecret)
	signature := fmt.Sprintf("%x", sha1.Sum([]byte(signatureString)))

	return fmt.Sprintf("%s/%s/%s/authenticated/%s?expires_at=%d&signature=%s",
		cloudinaryDeliveryBase(), cloudName, resourceType, ref.PublicID, expiresAt, signature)
}

// DeleteFile removes a stored file from Cloudinary using its public ID.
func DeleteFile(ref models.FileRef) bool {
	cloudName := os.Getenv("CLOUDINARY_CLOUD_NAME")
	apiKey := os.Getenv("CLOUDINARY_API_KEY")
	apiSecret := os.Getenv("CLOUDINARY_API_SECRET")

	if cloudName == "" || apiKey == "" || apiSecret == "" {
		fmt.Printf("ERROR: Missing Cloudinary env vars\n")
		return false
	}

	resourceType := ref.FileType
	if resourceType != "image" {
		resourceType = "raw"
	}

	timestamp := fmt.Sprintf("%d", time.Now().Unix())
	signatureString := fmt.Sprintf("public_id=%s&timestamp=%s%s", ref.PublicID, timestamp, apiSecret)
	signature := fmt.Sprintf("%x", sha1.Sum([]byte(signatureString)))

	form := url.Values{}
	form.Add("public_id", ref.PublicID)
	form.Add("api_key", apiKey)
	form.Add("timestamp", timestamp)
	form.Add("signature", signature)

	endpoint := cloudinaryAPIBase() + "/" + cloudName + "/" + resourceType + "/destroy"
	req, err := http.NewRequest("POST", endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		fmt.Printf("ERROR: Failed to create deletion request: %v\n", err)
		return false
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	res, err := http.DefaultClient.Do(req)
	if err != nil {
		fmt.Printf("ERROR: Deletion request failed: %v\n", err)
		return false
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		fmt.Printf("ERROR: Failed to read deletion response: %v\n", err)
		return false
	}

	var deleteRes struct {
		Result string `json:"result"`
		Error  struct {
			Message string `json:"message"`
		} `json:"error"`
	}

	if err := json.Unmarshal(body, &deleteRes); err != nil {
		fmt.Printf("ERROR: Failed to parse deletion response: %v\n", err)
		return false
	}

	if deleteRes.Error.Message != "" {
		fmt.Printf("ERROR: Cloudinary deletion error: %s\n", deleteRes.Error.Message)
		return false
	}

	if deleteRes.Result != "ok" {
		fmt.Printf("ERROR: Deletion result not ok: %s\n", deleteRes.Result)
		return false
	}

	return true
}
