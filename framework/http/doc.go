// Package http provides the request and response helpers used by the
// inspect server.
//
//	req := gohttp.NewRequest(r)
//	res := gohttp.NewResponse(w)
//
//	if v := req.Validate(validation.Rules{"names": "required|identifier"}); v.Fails() {
//	    res.ValidationError(v.Errors()) // 422 {"errors": {...}}
//	    return
//	}
//	res.Success(closure) // 200 {"data": [...]}
//
// Errors are always {"message": "..."}; Text writes text/plain for clients
// that ask for it with ?format=text or Accept: text/plain.
package http
