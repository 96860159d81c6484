package main

// General API documentation for swaggo. The registered document lives in
// internal/httpapi/apidocs and is served with -tags=swagger.
//
// @title           runtimed API
// @version         1.0
// @description     Lifecycle manager for the model runtime container.
//
// @BasePath  /
