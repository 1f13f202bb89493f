package middlewares

// gin.Context keys set by this package.
const CtxRequestID = "request_id"
