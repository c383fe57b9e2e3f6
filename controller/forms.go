package controller

import (
	"errors"

	"cafefinder/model"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// RegisterValidations installs the cafe validation tags on gin's form validator.
func RegisterValidations() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return errors.New("binding validator is not go-playground/validator")
	}
	return model.RegisterValidations(v)
}

type CafeForm struct {
	Name         string `form:"name" binding:"required,max=250"`
	Location     string `form:"location" binding:"required,max=250"`
	ImgURL       string `form:"img_url" binding:"omitempty,imageref,max=500"`
	MapURL       string `form:"map_url" binding:"required,url,max=500"`
	Seats        string `form:"seats" binding:"required,max=250"`
	CoffeePrice  string `form:"coffee_price" binding:"required,max=250"`
	HasToilet    bool   `form:"has_toilet"`
	HasWifi      bool   `form:"has_wifi"`
	HasSockets   bool   `form:"has_sockets"`
	CanTakeCalls bool   `form:"can_take_calls"`
}

func cafeFormFrom(c *model.Cafe) CafeForm {
	return CafeForm{
		Name:         c.Name,
		Location:     c.Location,
		ImgURL:       c.ImgURL,
		MapURL:       c.MapURL,
		Seats:        c.Seats,
		CoffeePrice:  c.CoffeePrice,
		HasToilet:    c.HasToilet,
		HasWifi:      c.HasWifi,
		HasSockets:   c.HasSockets,
		CanTakeCalls: c.CanTakeCalls,
	}
}

// apply copies the editable fields onto cafe.
func (f CafeForm) apply(c *model.Cafe) {
	c.Name = f.Name
	c.Location = f.Location
	c.ImgURL = f.ImgURL
	c.MapURL = f.MapURL
	c.Seats = f.Seats
	c.CoffeePrice = f.CoffeePrice
	c.HasToilet = f.HasToilet
	c.HasWifi = f.HasWifi
	c.HasSockets = f.HasSockets
	c.CanTakeCalls = f.CanTakeCalls
}

type CredentialsForm struct {
	Email    string `form:"email" binding:"required,email,max=250"`
	Password string `form:"password" binding:"required,max=72"`
}

// bindForm binds the request into form and returns field errors keyed by struct
// field name; "Form" holds errors that belong to no single field.
func bindForm(c *gin.Context, form any) map[string]string {
	errs := map[string]string{}
	if err := c.ShouldBind(form); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			for _, fe := range verrs {
				errs[fe.Field()] = fieldMessage(fe)
			}
		} else {
			errs["Form"] = "The form could not be read. Please check the values and try again."
		}
	}
	return errs
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required."
	case "url", model.ImageRefTag:
		return "Invalid URL."
	case "email":
		return "Invalid email address."
	case "max":
		return "Field cannot be longer than " + fe.Param() + " characters."
	default:
		return "Invalid value."
	}
}
