package session

import "k8s.io/apimachinery/pkg/runtime/schema"

// builtinKinds maps user-facing kind aliases to their resources. Kinds
// outside this table are resolved through server discovery.
var builtinKinds = map[string]resolvedKind{
	// core/v1
	"pods":                   nsKind("", "v1", "pods"),
	"pod":                    nsKind("", "v1", "pods"),
	"po":                     nsKind("", "v1", "pods"),
	"services":               nsKind("", "v1", "services"),
	"service":                nsKind("", "v1", "services"),
	"svc":                    nsKind("", "v1", "services"),
	"configmaps":             nsKind("", "v1", "configmaps"),
	"configmap":              nsKind("", "v1", "configmaps"),
	"cm":                     nsKind("", "v1", "configmaps"),
	"secrets":                nsKind("", "v1", "secrets"),
	"secret":                 nsKind("", "v1", "secrets"),
	"serviceaccounts":        nsKind("", "v1", "serviceaccounts"),
	"serviceaccount":         nsKind("", "v1", "serviceaccounts"),
	"sa":                     nsKind("", "v1", "serviceaccounts"),
	"endpoints":              nsKind("", "v1", "endpoints"),
	"events":                 nsKind("", "v1", "events"),
	"persistentvolumeclaims": nsKind("", "v1", "persistentvolumeclaims"),
	"persistentvolumeclaim":  nsKind("", "v1", "persistentvolumeclaims"),
	"pvc":                    nsKind("", "v1", "persistentvolumeclaims"),
	"nodes":                  clusterKind("", "v1", "nodes"),
	"node":                   clusterKind("", "v1", "nodes"),
	"no":                     clusterKind("", "v1", "nodes"),
	"namespaces":             clusterKind("", "v1", "namespaces"),
	"namespace":              clusterKind("", "v1", "namespaces"),
	"ns":                     clusterKind("", "v1", "namespaces"),
	"persistentvolumes":      clusterKind("", "v1", "persistentvolumes"),
	"persistentvolume":       clusterKind("", "v1", "persistentvolumes"),
	"pv":                     clusterKind("", "v1", "persistentvolumes"),

	// apps/v1
	"deployments":  nsKind("apps", "v1", "deployments"),
	"deployment":   nsKind("apps", "v1", "deployments"),
	"deploy":       nsKind("apps", "v1", "deployments"),
	"replicasets":  nsKind("apps", "v1", "replicasets"),
	"replicaset":   nsKind("apps", "v1", "replicasets"),
	"rs":           nsKind("apps", "v1", "replicasets"),
	"daemonsets":   nsKind("apps", "v1", "daemonsets"),
	"daemonset":    nsKind("apps", "v1", "daemonsets"),
	"ds":           nsKind("apps", "v1", "daemonsets"),
	"statefulsets": nsKind("apps", "v1", "statefulsets"),
	"statefulset":  nsKind("apps", "v1", "statefulsets"),
	"sts":          nsKind("apps", "v1", "statefulsets"),

	// batch/v1
	"jobs":     nsKind("batch", "v1", "jobs"),
	"job":      nsKind("batch", "v1", "jobs"),
	"cronjobs": nsKind("batch", "v1", "cronjobs"),
	"cronjob":  nsKind("batch", "v1", "cronjobs"),
	"cj":       nsKind("batch", "v1", "cronjobs"),

	// networking.k8s.io/v1
	"ingresses": nsKind("networking.k8s.io", "v1", "ingresses"),
	"ingress":   nsKind("networking.k8s.io", "v1", "ingresses"),
	"ing":       nsKind("networking.k8s.io", "v1", "ingresses"),
}

func nsKind(group, version, resource string) resolvedKind {
	return resolvedKind{
		gvr:        schema.GroupVersionResource{Group: group, Version: version, Resource: resource},
		namespaced: true,
	}
}

func clusterKind(group, version, resource string) resolvedKind {
	return resolvedKind{
		gvr:        schema.GroupVersionResource{Group: group, Version: version, Resource: resource},
		namespaced: false,
	}
}
