package booking

import "github.com/rezervi/rezervi-api/internal/httperr"

var errForbidden = httperr.Forbidden("not allowed to act on this reservation")
