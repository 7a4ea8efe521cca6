package gcp

import "testing"

func TestResolvePublicBaseURL(t *testing.T) {
	emu := ObjectStorageConfig{Mode: ObjectStorageModeGCSEmulator, EmulatorHost: "http://fake-gcs:4443"}

	cases := []struct {
		name       string
		cfg        ObjectStorageConfig
		raw        string
		wantBase   string
		wantSource string
		wantErr    bool
	}{
		{name: "gcs default", cfg: ObjectStorageConfig{Mode: ObjectStorageModeGCS}, wantSource: "gcs_default"},
		{name: "emulator fallback", cfg: emu, wantBase: "http://fake-gcs:4443", wantSource: "storage_emulator_host"},
		{name: "override", cfg: emu, raw: "http://localhost:4443/", wantBase: "http://localhost:4443", wantSource: "object_storage_public_base_url"},
		{name: "invalid override", cfg: emu, raw: "localhost:4443", wantErr: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			base, source, err := resolvePublicBaseURL(tc.cfg, tc.raw)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("resolvePublicBaseURL: %v", err)
			}
			if base != tc.wantBase || source != tc.wantSource {
				t.Fatalf("got base=%q source=%q", base, source)
			}
		})
	}
}

func TestMediaHostPublicURL(t *testing.T) {
	key := "chat/u1/a b.png"
	cases := []struct {
		name string
		host gcsMediaHost
		want string
	}{
		{
			name: "gcs default",
			host: gcsMediaHost{mode: ObjectStorageModeGCS, bucket: "att"},
			want: "https://storage.googleapis.com/att/chat/u1/a b.png",
		},
		{
			name: "cdn wins",
			host: gcsMediaHost{mode: ObjectStorageModeGCS, bucket: "att", cdnDomain: "cdn.example.com"},
			want: "https://cdn.example.com/chat/u1/a b.png",
		},
		{
			name: "emulator media url",
			host: gcsMediaHost{mode: ObjectStorageModeGCSEmulator, bucket: "att", emulatorHost: "http://fake-gcs:4443"},
			want: "http://fake-gcs:4443/storage/v1/b/att/o/chat%2Fu1%2Fa%20b.png?alt=media",
		},
		{
			name: "public base url",
			host: gcsMediaHost{mode: ObjectStorageModeGCS, bucket: "att", publicBaseURL: "https://files.example.com"},
			want: "https://files.example.com/att/chat/u1/a b.png",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.host.publicURL(key); got != tc.want {
				t.Fatalf("publicURL: want=%q got=%q", tc.want, got)
			}
		})
	}
}
