package logging

import (
	"context"
)

const (
	TraceIDKey          = "trace_id"
	BookingReferenceKey = "booking_reference"
	ServiceNameKey      = "service_name"
)

func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, TraceIDKey, traceID)
}

func WithBookingReference(ctx context.Context, reference string) context.Context {
	return context.WithValue(ctx, BookingReferenceKey, reference)
}

func WithServiceName(ctx context.Context, serviceName string) context.Context {
	return context.WithValue(ctx, ServiceNameKey, serviceName)
}

func GetTraceID(ctx context.Context) string {
	if traceID, ok := ctx.Value(TraceIDKey).(string); ok {
		return traceID
	}
	return ""
}

func GetBookingReference(ctx context.Context) string {
	if reference, ok := ctx.Value(BookingReferenceKey).(string); ok {
		return reference
	}
	return ""
}

func GetServiceName(ctx context.Context) string {
	if serviceName, ok := ctx.Value(ServiceNameKey).(string); ok {
		return serviceName
	}
	return ""
}

func GetLogFields(ctx context.Context) []interface{} {
	fields := make([]interface{}, 0, 6)

	if traceID := GetTraceID(ctx); traceID != "" {
		fields = append(fields, "trace_id", traceID)
	}

	if reference := GetBookingReference(ctx); reference != "" {
		fields = append(fields, "booking_reference", reference)
	}

	if serviceName := GetServiceName(ctx); serviceName != "" {
		fields = append(fields, "service_name", serviceName)
	}

	return fields
}
