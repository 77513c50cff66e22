/*
Package observability exposes the runtime metrics of an application:
request counts, live sessions and the state of the task scheduler.
*/
package observability
