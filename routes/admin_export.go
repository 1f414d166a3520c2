package routes

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/uddalak2005/AgroSure/models"
	"github.com/uddalak2005/AgroSure/storage"

	"github.com/kataras/iris/v12"
	"github.com/xuri/excelize/v2"
)

type exportJob struct {
	ID        string `json:"id"`
	Resource  string `json:"resource"`
	Status    string `json:"status"` // pending, processing, done, failed
	CreatedAt int64  `json:"created_at"`
	File      string `json:"file,omitempty"`
	Error     string `json:"error,omitempty"`
}

var (
	exportJobs   = map[string]*exportJob{}
	exportJobsMu sync.Mutex
)

// POST /admin/export { resource: "loans" | "claims" }
func AdminCreateExport(ctx iris.Context) {
	var body struct {
		Resource string `json:"resource"`
	}
	if err := ctx.ReadJSON(&body); err != nil || (body.Resource != "loans" && body.Resource != "claims") {
		ctx.StatusCode(iris.StatusUnprocessableEntity)
		ctx.JSON(iris.Map{"error": "invalid_payload", "message": "resource must be loans or claims"})
		return
	}

	id := time.Now().Format("20060102150405.000000")
	job := &exportJob{ID: id, Resource: body.Resource, Status: "pending", CreatedAt: time.Now().Unix()}
	exportJobsMu.Lock()
	exportJobs[id] = job
	exportJobsMu.Unlock()

	go buildExport(job)

	ctx.JSON(iris.Map{"data": iris.Map{"id": id, "status": "pending"}})
}

// GET /admin/export/{id}
func AdminGetExport(ctx iris.Context) {
	id := ctx.Params().GetString("id")

	// Serialize a copy: the builder goroutine mutates the shared job under
	// the same mutex.
	exportJobsMu.Lock()
	job, ok := exportJobs[id]
	var snapshot exportJob
	if ok {
		snapshot = *job
	}
	exportJobsMu.Unlock()

	if !ok {
		ctx.StatusCode(iris.StatusNotFound)
		ctx.JSON(iris.Map{"error": "not_found", "message": "job not found"})
		return
	}
	ctx.JSON(iris.Map{"data": snapshot})
}

func setJobState(job *exportJob, status, file, errMsg string) {
	exportJobsMu.Lock()
	job.Status = status
	job.File = file
	job.Error = errMsg
	exportJobsMu.Unlock()
}

func buildExport(job *exportJob) {
	setJobState(job, "processing", "", "")

	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)

	switch job.Resource {
	case "loans":
		headers := []string{"ID", "UID", "Crop ID", "Purpose", "Amount", "Tenure (months)", "Status", "Applied"}
		for i, h := range headers {
			cell, _ := excelize.CoordinatesToCellName(i+1, 1)
			f.SetCellValue(sheet, cell, h)
		}
		var loans []models.Loan
		storage.DB.Find(&loans)
		for row, loan := range loans {
			values := []interface{}{
				loan.ID, loan.UID, loan.CropID, loan.LoanPurpose, loan.RequestedAmount,
				loan.LoanTenure, loan.Status, loan.ApplicationDate.Format(time.RFC3339),
			}
			for col, v := range values {
				cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
				f.SetCellValue(sheet, cell, v)
			}
		}
	case "claims":
		headers := []string{"ID", "UID", "Provider", "UIN", "Policy No", "Status", "Filed"}
		for i, h := range headers {
			cell, _ := excelize.CoordinatesToCellName(i+1, 1)
			f.SetCellValue(sheet, cell, h)
		}
		var claims []models.Insurance
		storage.DB.Find(&claims)
		for row, claim := range claims {
			values := []interface{}{
				claim.ID, claim.UID, claim.Provider, claim.UIN, claim.PolicyNumber,
				claim.ClaimStatus, claim.CreatedAt.Format(time.RFC3339),
			}
			for col, v := range values {
				cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
				f.SetCellValue(sheet, cell, v)
			}
		}
	}

	dir := os.Getenv("EXPORT_DIR")
	if dir == "" {
		dir = "exports"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		setJobState(job, "failed", "", err.Error())
		return
	}

	path := filepath.Join(dir, fmt.Sprintf("%s-%s.xlsx", job.Resource, job.ID))
	if err := f.SaveAs(path); err != nil {
		log.Println("❌ Export failed:", err)
		setJobState(job, "failed", "", err.Error())
		return
	}

	setJobState(job, "done", path, "")
}
