// Package http writes the inspector's JSON envelopes: {"data": ...} on
// success and {"message": ...} on failure, with container resolution errors
// mapped to 404, 409 or 500.
//
//	res := gohttp.NewResponse(w)
//	inst, err := c.Resolve(id)
//	if err != nil {
//	    res.ContainerError(err)
//	    return
//	}
//	res.Success(inst)
package http
