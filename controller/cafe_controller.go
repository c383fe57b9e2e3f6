package controller

import (
	"context"
	"errors"
	"math/rand/v2"
	"net/http"
	"strconv"

	"cafefinder/logging"
	"cafefinder/metrics"
	"cafefinder/model"
	"cafefinder/repository"
	"cafefinder/utils"

	"github.com/gin-gonic/gin"
)

var (
	openTimes   = []string{"8:00 - 20:00", "7:00 - 19:00", "24 Hours", "8:00 - 17:00", "7:30 - 19:30"}
	cafeRatings = []string{"4.2", "4.9", "3.7", "4.3", "4.5", "4.1"}
)

type CafeStore interface {
	List(ctx context.Context) ([]model.Cafe, error)
	FindByID(ctx context.Context, id uint) (*model.Cafe, error)
	Create(ctx context.Context, cafe *model.Cafe) error
	CreateBatch(ctx context.Context, cafes []model.Cafe) error
	Update(ctx context.Context, cafe *model.Cafe) error
	Delete(ctx context.Context, id uint) error
	ImageInUse(ctx context.Context, imgURL string) (bool, error)
}

type CafeController struct {
	cafes    CafeStore
	uploader *Uploader
}

func NewCafeController(cafes CafeStore, uploader *Uploader) *CafeController {
	return &CafeController{cafes: cafes, uploader: uploader}
}

func (h *CafeController) Home(c *gin.Context) {
	cafes, err := h.cafes.List(c.Request.Context())
	if err != nil {
		serverError(c, "failed to list cafes", err)
		return
	}

	render(c, http.StatusOK, "home_page.html", gin.H{
		"cafes":      cafes,
		"open_times": pick(openTimes),
	})
}

func (h *CafeController) CafePage(c *gin.Context) {
	cafe, ok := h.loadCafe(c)
	if !ok {
		return
	}

	userID, _ := utils.CurrentUserID(c)
	render(c, http.StatusOK, "cafe_page.html", gin.H{
		"title":       cafe.Name,
		"cafe":        cafe,
		"is_owner":    cafe.OwnedBy(userID),
		"map_link":    cafe.MapLink(),
		"open_times":  pick(openTimes),
		"cafe_rating": pick(cafeRatings),
	})
}

func (h *CafeController) AddCafe(c *gin.Context) {
	page := gin.H{"title": "Add Cafe", "heading": "Add a new cafe", "action": "/add-cafe"}

	if c.Request.Method == http.MethodGet {
		page["form"] = CafeForm{}
		render(c, http.StatusOK, "add.html", page)
		return
	}

	var form CafeForm
	errs := bindForm(c, &form)
	page["form"] = form
	if len(errs) > 0 {
		page["errors"] = errs
		render(c, http.StatusBadRequest, "add.html", page)
		return
	}

	uploaded, ok := h.saveImage(c, &form, page, "")
	if !ok {
		return
	}

	userID, _ := utils.CurrentUserID(c)
	cafe := model.Cafe{OwnerID: userID}
	form.apply(&cafe)

	if err := h.cafes.Create(c.Request.Context(), &cafe); err != nil {
		h.discard(c, uploaded)
		if errors.Is(err, repository.ErrDuplicate) {
			page["errors"] = map[string]string{"Name": "A cafe with this name already exists."}
			render(c, http.StatusConflict, "add.html", page)
			return
		}
		serverError(c, "failed to create cafe", err)
		return
	}

	metrics.CafeChanged("create", 1)
	logging.FromContext(c).WithField("cafe_id", cafe.ID).Info("cafe created")
	c.Redirect(http.StatusFound, "/")
}

func (h *CafeController) EditCafe(c *gin.Context) {
	cafe, ok := h.loadOwnedCafe(c)
	if !ok {
		return
	}

	page := gin.H{
		"title":   "Edit " + cafe.Name,
		"heading": "Edit " + cafe.Name,
		"action":  "/edit-cafe/" + strconv.FormatUint(uint64(cafe.ID), 10),
		"cafe_id": cafe.ID,
	}

	if c.Request.Method == http.MethodGet {
		page["form"] = cafeFormFrom(cafe)
		render(c, http.StatusOK, "add.html", page)
		return
	}

	var form CafeForm
	errs := bindForm(c, &form)
	page["form"] = form
	if len(errs) > 0 {
		page["errors"] = errs
		render(c, http.StatusBadRequest, "add.html", page)
		return
	}

	previousImage := cafe.ImgURL
	uploaded, ok := h.saveImage(c, &form, page, previousImage)
	if !ok {
		return
	}

	form.apply(cafe)
	if err := h.cafes.Update(c.Request.Context(), cafe); err != nil {
		h.discard(c, uploaded)
		switch {
		case errors.Is(err, repository.ErrDuplicate):
			page["errors"] = map[string]string{"Name": "A cafe with this name already exists."}
			render(c, http.StatusConflict, "add.html", page)
		case errors.Is(err, repository.ErrNotFound):
			renderError(c, http.StatusNotFound, "This cafe does not exist.")
		default:
			serverError(c, "failed to update cafe", err)
		}
		return
	}

	if cafe.ImgURL != previousImage {
		h.discard(c, previousImage)
	}

	metrics.CafeChanged("update", 1)
	logging.FromContext(c).WithField("cafe_id", cafe.ID).Info("cafe updated")
	c.Redirect(http.StatusFound, "/cafe/"+strconv.FormatUint(uint64(cafe.ID), 10))
}

// DeleteCafe asks for confirmation on GET and deletes on POST, so a plain
// cross-site link cannot remove a cafe.
func (h *CafeController) DeleteCafe(c *gin.Context) {
	cafe, ok := h.loadOwnedCafe(c)
	if !ok {
		return
	}

	if c.Request.Method == http.MethodGet {
		render(c, http.StatusOK, "delete.html", gin.H{"title": "Delete " + cafe.Name, "cafe": cafe})
		return
	}

	if err := h.cafes.Delete(c.Request.Context(), cafe.ID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			renderError(c, http.StatusNotFound, "This cafe does not exist.")
			return
		}
		serverError(c, "failed to delete cafe", err)
		return
	}
	h.discard(c, cafe.ImgURL)

	metrics.CafeChanged("delete", 1)
	logging.FromContext(c).WithField("cafe_id", cafe.ID).Info("cafe deleted")
	utils.AddFlash(c, utils.FlashSuccess, cafe.Name+" was deleted.")
	c.Redirect(http.StatusFound, "/")
}

func (h *CafeController) loadCafe(c *gin.Context) (*model.Cafe, bool) {
	id, ok := parseID(c)
	if !ok {
		renderError(c, http.StatusNotFound, "This cafe does not exist.")
		return nil, false
	}

	cafe, err := h.cafes.FindByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			renderError(c, http.StatusNotFound, "This cafe does not exist.")
		} else {
			serverError(c, "failed to fetch cafe", err)
		}
		return nil, false
	}
	return cafe, true
}

func (h *CafeController) loadOwnedCafe(c *gin.Context) (*model.Cafe, bool) {
	cafe, ok := h.loadCafe(c)
	if !ok {
		return nil, false
	}
	userID, _ := utils.CurrentUserID(c)
	if !cafe.OwnedBy(userID) {
		renderError(c, http.StatusForbidden, "You don't have permission to change this cafe.")
		return nil, false
	}
	return cafe, true
}

// saveImage stores an uploaded image and points form.ImgURL at it. Without an
// upload, form.ImgURL (or fallback) must be set. On failure the form page has
// been rendered and ok is false.
func (h *CafeController) saveImage(c *gin.Context, form *CafeForm, page gin.H, fallback string) (string, bool) {
	uploaded, err := h.uploader.Save(c, "image")
	if err != nil {
		if errors.Is(err, errImageTooLarge) || errors.Is(err, errImageType) {
			page["errors"] = map[string]string{"Image": err.Error()}
			render(c, http.StatusBadRequest, "add.html", page)
			return "", false
		}
		serverError(c, "failed to store cafe image", err)
		return "", false
	}

	switch {
	case uploaded != "":
		form.ImgURL = uploaded
	case form.ImgURL == "" && fallback != "":
		form.ImgURL = fallback
	case form.ImgURL == "":
		page["errors"] = map[string]string{"ImgURL": "This field is required."}
		render(c, http.StatusBadRequest, "add.html", page)
		return "", false
	}
	return uploaded, true
}

// discard removes an uploaded image once no cafe refers to it.
func (h *CafeController) discard(c *gin.Context, imageURL string) {
	if !model.IsUploadedImage(imageURL) {
		return
	}
	inUse, err := h.cafes.ImageInUse(c.Request.Context(), imageURL)
	if err != nil {
		logging.FromContext(c).WithError(err).Warn("failed to check cafe image references")
		return
	}
	if inUse {
		return
	}
	if err := h.uploader.Remove(imageURL); err != nil {
		logging.FromContext(c).WithError(err).Warn("failed to remove cafe image")
	}
}

func pick(options []string) string {
	return options[rand.IntN(len(options))]
}
