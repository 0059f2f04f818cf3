package handlers

import (
	"net/http"

	"procurement/internal/apperrors"
	"procurement/internal/scoring"
	"procurement/models"
)

var vendorStatuses = map[string]bool{
	models.VendorPending: true, models.VendorApproved: true,
	models.VendorSuspended: true, models.VendorDebarred: true,
}

// CreateVendorHandler регистрирует поставщика в статусе pending
func (h *Handler) CreateVendorHandler(w http.ResponseWriter, r *http.Request) {
	var vendor models.Vendor
	if err := decodeJSONBody(w, r, &vendor); err != nil {
		h.writeError(w, r, err)
		return
	}

	level, err := scoring.ParseLevel(vendor.BBBEELevel)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	vendor.BBBEELevel = string(level)
	vendor.Status = models.VendorPending
	vendor.DebarmentStatus = models.DebarmentNone

	if err := h.Store.CreateVendor(r.Context(), &vendor); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, vendor)
}

func (h *Handler) GetVendorHandler(w http.ResponseWriter, r *http.Request) {
	vendorID, err := pathID(r, "vendorId")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	vendor, err := h.Store.GetVendor(r.Context(), vendorID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, vendor)
}

// authorizeVendorStaff: поставщика муниципалитета ведут его ответственные,
// общих поставщиков может вести любой сотрудник.
func (h *Handler) authorizeVendorStaff(r *http.Request, vendor *models.Vendor, username string) error {
	if vendor.MunicipalityID != nil {
		_, err := h.authorizeStaff(r.Context(), username, *vendor.MunicipalityID)
		return err
	}
	_, err := h.employee(r.Context(), username)
	return err
}

// UpdateVendorStatusHandler меняет статус поставщика; debarred также помечает его в реестре отстранённых
func (h *Handler) UpdateVendorStatusHandler(w http.ResponseWriter, r *http.Request) {
	vendorID, err := pathID(r, "vendorId")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	q, err := requireQuery(r, "status", "username")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	status := q["status"]
	if !vendorStatuses[status] {
		h.writeError(w, r, apperrors.Newf(apperrors.CodeValidation, "invalid status value %q", status))
		return
	}

	vendor, err := h.Store.GetVendor(r.Context(), vendorID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := h.authorizeVendorStaff(r, vendor, q["username"]); err != nil {
		h.writeError(w, r, err)
		return
	}
	if !models.CanTransitionVendor(vendor.Status, status) {
		h.writeError(w, r, stateConflict("vendor", vendor.Status, status))
		return
	}

	vendor.Status = status
	if status == models.VendorDebarred {
		vendor.DebarmentStatus = models.DebarmentListed
	}
	if err := h.Store.UpdateVendor(r.Context(), vendor); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, vendor)
}

// AddVendorDocumentHandler прикрепляет к поставщику документ для проверок соответствия
func (h *Handler) AddVendorDocumentHandler(w http.ResponseWriter, r *http.Request) {
	vendorID, err := pathID(r, "vendorId")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	q, err := requireQuery(r, "username")
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	var doc models.VendorDocument
	if err := decodeJSONBody(w, r, &doc); err != nil {
		h.writeError(w, r, err)
		return
	}
	if doc.IssuedAt != nil && doc.ExpiresAt != nil && doc.ExpiresAt.Before(*doc.IssuedAt) {
		h.writeError(w, r, apperrors.New(apperrors.CodeValidation, "expiresAt must not be before issuedAt"))
		return
	}

	vendor, err := h.Store.GetVendor(r.Context(), vendorID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := h.authorizeVendorStaff(r, vendor, q["username"]); err != nil {
		h.writeError(w, r, err)
		return
	}

	doc.ID = 0
	doc.VendorID = vendor.ID
	if err := h.Store.AddVendorDocument(r.Context(), &doc); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, doc)
}
