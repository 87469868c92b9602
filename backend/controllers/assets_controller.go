package controllers

import (
	"io"

	"github.com/gofiber/fiber/v2"

	"learnhub/backend/assets"
	"learnhub/backend/config"
	"learnhub/backend/utils"
)

type AssetsController struct {
	Uploader assets.Uploader
	Cfg      *config.Config
}

func NewAssetsController(u assets.Uploader, cfg *config.Config) *AssetsController {
	return &AssetsController{Uploader: u, Cfg: cfg}
}

// Upload godoc
// @Summary Upload an image or file
// @Description Multipart field "file", or JSON {"url": "..."} to copy a remote file.
// @Tags assets
// @Param folder query string false "Target folder" default(uploads)
// @Success 201 {object} utils.SuccessResponse
// @Security ApiKeyAuth
// @Router /assets [post]
func (ac *AssetsController) Upload(c *fiber.Ctx) error {
	var asset assets.Asset
	folder := c.Query("folder")

	if fh, err := c.FormFile("file"); err == nil {
		f, err := fh.Open()
		if err != nil {
			return utils.BadRequest(c, "Cannot read file")
		}
		defer f.Close()
		data, err := io.ReadAll(io.LimitReader(f, assets.MaxAssetBytes+1))
		if err != nil {
			return utils.BadRequest(c, "Cannot read file")
		}
		asset = assets.Asset{Data: data, Name: fh.Filename, ContentType: fh.Header.Get("Content-Type")}
		if v := c.FormValue("folder"); v != "" {
			folder = v
		}
	} else {
		var input struct {
			URL    string `json:"url" validate:"required,url"`
			Folder string `json:"folder"`
		}
		if err := c.BodyParser(&input); err != nil {
			return utils.BadRequest(c, "Expected multipart file or JSON body")
		}
		if err := utils.Validate(input); err != nil {
			return utils.Fail(c, err)
		}
		asset = assets.Asset{SourceURL: input.URL}
		if input.Folder != "" {
			folder = input.Folder
		}
	}

	url, err := ac.Uploader.Upload(c.UserContext(), asset, folder)
	if err != nil {
		return utils.Fail(c, err)
	}
	return utils.Created(c, fiber.Map{"url": url})
}
