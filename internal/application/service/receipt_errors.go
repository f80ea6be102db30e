package service

import (
	"errors"
	"net/http"
	"sort"

	"github.com/sangkips/receipt-voucher-api/internal/domain/repository"
	"github.com/sangkips/receipt-voucher-api/internal/domain/voucher"
	"github.com/sangkips/receipt-voucher-api/pkg/apperror"
	"github.com/shopspring/decimal"
)

// ImbalanceDetails is sent with a validation error when the journal does not balance.
type ImbalanceDetails struct {
	Difference decimal.Decimal `json:"difference"`
	Side       string          `json:"side"`
}

// ConfirmationDetails tells the client to repeat the request with confirm set.
type ConfirmationDetails struct {
	ConfirmationRequired bool `json:"confirmation_required"`
}

// toAppError maps engine and store errors to HTTP-facing errors. Unknown
// errors are returned unchanged.
func toAppError(err error) error {
	if err == nil || apperror.IsAppError(err) {
		return err
	}

	var verr *voucher.ValidationErrors
	if errors.As(err, &verr) {
		return validationAppError(verr)
	}

	var ferr *voucher.FetchError
	if errors.As(err, &ferr) {
		if errors.Is(ferr, voucher.ErrPayerNotResolvable) {
			return apperror.NewValidationError([]apperror.FieldError{
				{Field: voucher.FieldPayer, Message: "Payer account not found"},
			})
		}
		return apperror.Wrap(http.StatusBadGateway, "Unable to load outstanding bills", err)
	}

	switch {
	case errors.Is(err, voucher.ErrConfirmationRequired):
		appErr := apperror.Wrap(http.StatusConflict, "Changing payer removes allocations and journal. Confirm to continue.", err)
		appErr.Details = ConfirmationDetails{ConfirmationRequired: true}
		return appErr
	case errors.Is(err, voucher.ErrNotEditable):
		return apperror.Wrap(http.StatusConflict, "Receipt is not editable", err)
	case errors.Is(err, voucher.ErrBillNotFound):
		return apperror.Wrap(http.StatusNotFound, "Bill not found", err)
	case errors.Is(err, voucher.ErrBillNotSelected):
		return apperror.Wrap(http.StatusBadRequest, "Bill is not selected", err)
	case errors.Is(err, repository.ErrSessionNotFound):
		return apperror.Wrap(http.StatusNotFound, "Receipt session not found", err)
	case errors.Is(err, repository.ErrSessionBusy):
		return apperror.Wrap(http.StatusConflict, "Receipt session is busy, try again", err)
	}
	return err
}

func validationAppError(verr *voucher.ValidationErrors) *apperror.AppError {
	fields := make([]string, 0, len(verr.Fields))
	for f := range verr.Fields {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	fieldErrors := make([]apperror.FieldError, 0, len(fields))
	for _, f := range fields {
		fieldErrors = append(fieldErrors, apperror.FieldError{Field: f, Message: verr.Fields[f]})
	}

	appErr := apperror.Wrap(http.StatusUnprocessableEntity, "Validation failed", verr)
	appErr.Errors = fieldErrors
	if verr.Imbalance != nil {
		appErr.Details = ImbalanceDetails{
			Difference: verr.Imbalance.Difference,
			Side:       verr.Imbalance.Side.String(),
		}
	}
	return appErr
}
