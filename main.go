package main

import (
	"log"
	"os"

	"github.com/uddalak2005/AgroSure/routes"
	"github.com/uddalak2005/AgroSure/storage"
	"github.com/uddalak2005/AgroSure/utils"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kataras/iris/v12"
)

func main() {
	godotenv.Load()
	storage.InitializeDB()
	storage.InitializeRedis()
	storage.InitializeCloudinary()
	utils.InitializeIdentityVerifier()

	app := newApp()

	port := os.Getenv("PORT")
	if port == "" {
		port = "4000"
	}

	log.Println("🚀 AgroSure backend listening on port", port)
	app.Listen(":" + port)
}

func newApp() *iris.Application {
	app := iris.New()
	app.Validator = validator.New()

	app.AllowMethods(iris.MethodOptions)
	app.UseRouter(func(ctx iris.Context) {
		ctx.Header("Access-Control-Allow-Origin", "*")
		ctx.Header("Access-Control-Allow-Headers", "Authorization, Content-Type, X-Requested-With")
		ctx.Header("Access-Control-Allow-Methods", "GET,POST,PUT,PATCH,DELETE,OPTIONS")
		if ctx.Method() == iris.MethodOptions {
			ctx.StatusCode(iris.StatusNoContent)
			return
		}
		ctx.Next()
	})

	app.Get("/", func(ctx iris.Context) {
		ctx.WriteString("AgroSure Backend")
	})

	user := app.Party("/user")
	{
		user.Post("/register", routes.Register)
		user.Get("/dashboard/{uid}", utils.VerifyIdentity, routes.GetUserByUID)
	}

	crop := app.Party("/crop")
	{
		crop.Post("/addNewCrop", utils.VerifyIdentity, routes.AddNewCrop)
		crop.Get("/getPredictions/{id:uint}", routes.GetPredictions)
		crop.Get("/getAllCrops/{uid}", utils.VerifyIdentity, routes.GetAllCrops)
	}

	loan := app.Party("/loan")
	{
		loan.Post("/submit/{id:uint}", utils.VerifyIdentity, routes.SubmitLoan)
	}

	insurance := app.Party("/insurance")
	{
		insurance.Post("/create", utils.VerifyIdentity, routes.CreateInsurance)
		insurance.Put("/update/{id:uint}", routes.UpdateInsurance)
	}

	bank := app.Party("/bank")
	{
		bank.Get("/nearby", routes.GetNearbyBanks)
	}

	admin := app.Party("/admin")
	{
		admin.Post("/export", routes.AdminCreateExport)
		admin.Get("/export/{id}", routes.AdminGetExport)
	}

	return app
}
