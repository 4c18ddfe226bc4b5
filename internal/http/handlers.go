package http

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"github.com/ANIKETSHETTY47/hydro-systems-backend/internal/domain"
	"github.com/ANIKETSHETTY47/hydro-systems-backend/internal/service"
)

type handlers struct {
	svcs *service.Services
}

// Register mounts every route on app. Routes under /systems and /sensors
// require an authenticated caller.
func Register(app fiber.Router, svcs *service.Services) {
	h := &handlers{svcs: svcs}
	auth := RequireAuth(svcs.Users)

	users := app.Group("/users")
	users.Post("/register", h.register)
	users.Post("/login", h.login)
	users.Post("/logout", h.logout)
	users.Post("/token/refresh", h.refresh)
	users.Get("/detail", auth, h.userDetail)

	// Auth is attached per route so unknown paths fall through to 404.
	systems := app.Group("/systems")
	systems.Post("/create", auth, h.createSystem)
	systems.Get("/list", auth, h.listSystems)
	systems.Get("/detail/:id<int>", auth, h.systemDetail)
	systems.Patch("/update/:id<int>", auth, h.updateSystem)
	systems.Delete("/delete/:id<int>", auth, h.deleteSystem)
	if svcs.Export != nil {
		systems.Get("/export/:id<int>", auth, h.exportSystem)
	}

	sensors := app.Group("/sensors")
	sensors.Post("/add", auth, h.addSensor)
	sensors.Delete("/remove/:id<int>", auth, h.removeSensor)
	sensors.Get("/list/:system_id<int>", auth, h.listSensors)
	sensors.Post("/measurement/:system_id<int>", auth, h.addMeasurement)
}

func pathID(c *fiber.Ctx, name string) (int64, error) {
	id, err := c.ParamsInt(name)
	if err != nil {
		return 0, fiber.ErrNotFound
	}
	return int64(id), nil
}

func message(c *fiber.Ctx, status int, msg string) error {
	return c.Status(status).JSON(fiber.Map{"message": msg})
}

// Users

type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (h *handlers) register(c *fiber.Ctx) error {
	var req credentials
	if err := parseBody(c, &req); err != nil {
		return err
	}
	if err := h.svcs.Users.Register(c.UserContext(), req.Username, req.Password); err != nil {
		return err
	}
	return message(c, fiber.StatusOK, "User created successfully.")
}

func (h *handlers) login(c *fiber.Ctx) error {
	var req credentials
	if err := parseBody(c, &req); err != nil {
		return err
	}
	res, err := h.svcs.Users.Login(c.UserContext(), req.Username, req.Password)
	if err != nil {
		return err
	}
	c.Cookie(&fiber.Cookie{
		Name:     AccessCookie,
		Value:    res.AccessToken,
		Path:     "/",
		Expires:  h.svcs.Users.SessionExpiry(time.Now()),
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
	return c.JSON(fiber.Map{
		"message":       "Login successful",
		"user":          res.User,
		"access_token":  res.AccessToken,
		"refresh_token": res.RefreshToken,
	})
}

type tokenRequest struct {
	RefreshToken string `json:"refresh_token"`
}

func (h *handlers) logout(c *fiber.Ctx) error {
	var req tokenRequest
	// logout never fails, a broken body only means no refresh token
	_ = parseBody(c, &req)
	h.svcs.Users.Logout(c.UserContext(), bearerToken(c), c.Cookies(AccessCookie), req.RefreshToken)
	c.ClearCookie(AccessCookie)
	return message(c, fiber.StatusOK, "User logged out.")
}

func (h *handlers) refresh(c *fiber.Ctx) error {
	var req tokenRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	access, err := h.svcs.Users.Refresh(c.UserContext(), req.RefreshToken)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"access_token": access})
}

func (h *handlers) userDetail(c *fiber.Ctx) error {
	u, err := h.svcs.Users.CurrentUser(c.UserContext(), callerOf(c))
	if err != nil {
		return err
	}
	return c.JSON(u)
}

// Systems

type systemRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

func (h *handlers) createSystem(c *fiber.Ctx) error {
	var req systemRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	name := ""
	if req.Name != nil {
		name = *req.Name
	}
	sys, err := h.svcs.Systems.Create(c.UserContext(), callerOf(c), name, req.Description)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(sys)
}

func (h *handlers) listSystems(c *fiber.Ctx) error {
	out, err := h.svcs.Systems.List(c.UserContext(), callerOf(c))
	if err != nil {
		return err
	}
	return c.JSON(out)
}

func (h *handlers) systemDetail(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	detail, err := h.svcs.Systems.Get(c.UserContext(), callerOf(c), id)
	if err != nil {
		return err
	}
	return c.JSON(detail)
}

func (h *handlers) updateSystem(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req systemRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	sys, err := h.svcs.Systems.Update(c.UserContext(), callerOf(c), id, service.SystemPatch{
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		return err
	}
	return c.JSON(sys)
}

func (h *handlers) deleteSystem(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	if err := h.svcs.Systems.Delete(c.UserContext(), callerOf(c), id); err != nil {
		return err
	}
	return message(c, fiber.StatusOK, fmt.Sprintf("System with id %d has been deleted.", id))
}

func (h *handlers) exportSystem(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	url, err := h.svcs.Export.Export(c.UserContext(), callerOf(c), id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"url": url})
}

// Sensors

type sensorRequest struct {
	SystemID    *domain.LooseID `json:"system_id"`
	SensorType  string          `json:"sensor_type"`
	Description *string         `json:"description"`
}

func (h *handlers) addSensor(c *fiber.Ctx) error {
	var req sensorRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	sensor, err := h.svcs.Sensors.Create(c.UserContext(), callerOf(c), service.SensorInput{
		SystemID:    req.SystemID.Int64(),
		SensorType:  req.SensorType,
		Description: req.Description,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(sensor)
}

func (h *handlers) removeSensor(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	if err := h.svcs.Sensors.Remove(c.UserContext(), callerOf(c), id); err != nil {
		return err
	}
	return message(c, fiber.StatusOK, fmt.Sprintf("Sensor with id %d has been deleted.", id))
}

func (h *handlers) listSensors(c *fiber.Ctx) error {
	systemID, err := pathID(c, "system_id")
	if err != nil {
		return err
	}
	out, err := h.svcs.Sensors.List(c.UserContext(), callerOf(c), systemID)
	if err != nil {
		return err
	}
	return c.JSON(out)
}

type measurementRequest struct {
	SensorID *domain.LooseID  `json:"sensor_id"`
	Value    *decimal.Decimal `json:"value"`
}

func (h *handlers) addMeasurement(c *fiber.Ctx) error {
	systemID, err := pathID(c, "system_id")
	if err != nil {
		return err
	}
	var req measurementRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	_, err = h.svcs.Measurements.Append(c.UserContext(), callerOf(c), systemID, service.MeasurementInput{
		SensorID: req.SensorID.Int64(),
		Value:    req.Value,
	})
	if err != nil {
		return err
	}
	c.Status(fiber.StatusCreated)
	return nil
}
