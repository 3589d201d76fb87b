package objectstore

import "testing"

func TestConfigValidate(t *testing.T) {
	cases := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"valid keys", Config{Region: "us-east-1", AccessKeyID: "a", SecretAccessKey: "b"}, false},
		{"valid role", Config{Region: "us-east-1", RoleARN: "arn:aws:iam::1:role/x"}, false},
		{"valid bare region", Config{Region: "us-east-1"}, false},
		{"both keys and role", Config{Region: "us-east-1", AccessKeyID: "a", SecretAccessKey: "b", RoleARN: "arn:x"}, true},
		{"partial keys", Config{Region: "us-east-1", AccessKeyID: "a"}, true},
		{"missing region", Config{AccessKeyID: "a", SecretAccessKey: "b"}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.cfg.Validate()
			if tc.wantErr && err == nil {
				t.Fatalf("expected error, got nil")
			}
			if !tc.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestConfigUsePathStyle(t *testing.T) {
	if (Config{}).UsePathStyle() {
		t.Fatal("expected false for empty endpoint")
	}
	if !(Config{EndpointURL: "http://minio:9000"}).UsePathStyle() {
		t.Fatal("expected true when endpoint set")
	}
}
